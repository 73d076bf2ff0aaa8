package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

var (
	traceMu  sync.Mutex
	traceLog *log.Logger
)

// SetTraceWriter enables the raw request/response trace for the augmentation
// endpoint. Pass nil to disable.
func SetTraceWriter(w io.Writer) {
	traceMu.Lock()
	defer traceMu.Unlock()
	if w == nil {
		traceLog = nil
		return
	}
	traceLog = log.New(w, "", log.LstdFlags)
}

func traceBlock(kind, provider string, sections map[string]string, order []string) {
	traceMu.Lock()
	logger := traceLog
	traceMu.Unlock()
	if logger == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[AUGMENT][")
	b.WriteString(kind)
	b.WriteString("]")
	if provider != "" {
		b.WriteString("[")
		b.WriteString(provider)
		b.WriteString("]")
	}
	b.WriteString("\n")
	for _, title := range order {
		body := sections[title]
		if strings.TrimSpace(body) == "" {
			continue
		}
		b.WriteString("--- ")
		b.WriteString(title)
		b.WriteString(" ---\n")
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	logger.Print(b.String())
}

func TraceAugmentRequest(provider, systemPrompt, userPrompt string) {
	traceBlock("request", provider, map[string]string{
		"SYSTEM": systemPrompt,
		"USER":   userPrompt,
	}, []string{"SYSTEM", "USER"})
}

func TraceAugmentResponse(provider, raw string) {
	traceBlock("response", provider, map[string]string{"RAW": raw}, []string{"RAW"})
}
