package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.Augment.validate(); err != nil {
		return err
	}
	if err := c.Risk.validate(); err != nil {
		return err
	}
	if err := c.Ensemble.validate(); err != nil {
		return err
	}
	if err := c.Scheduler.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AugmentConfig) validate() error {
	if !a.Enabled {
		return nil
	}
	if strings.TrimSpace(a.APIURL) == "" {
		return fmt.Errorf("augment.api_url cannot be empty")
	}
	if strings.TrimSpace(a.Model) == "" {
		return fmt.Errorf("augment.model cannot be empty")
	}
	if a.TimeoutSeconds <= 0 {
		return fmt.Errorf("augment.timeout_seconds must be > 0")
	}
	if a.MaxRetries < 0 {
		return fmt.Errorf("augment.max_retries must be >= 0")
	}
	return nil
}

func (r *RiskConfig) validate() error {
	if r.AccountBalance <= 0 {
		return fmt.Errorf("risk.account_balance must be > 0")
	}
	if r.RiskPercentage <= 0 || r.RiskPercentage > 100 {
		return fmt.Errorf("risk.risk_percentage must be in (0, 100]")
	}
	return nil
}

func (e *EnsembleConfig) validate() error {
	if e.ConfidenceFloor < 0 || e.ConfidenceFloor > 100 {
		return fmt.Errorf("ensemble.confidence_floor must be in [0, 100]")
	}
	if e.ConfidenceCeiling < e.ConfidenceFloor || e.ConfidenceCeiling > 100 {
		return fmt.Errorf("ensemble.confidence_ceiling must be in [floor, 100]")
	}
	return nil
}

func (s *SchedulerConfig) validate() error {
	if !s.Enabled {
		return nil
	}
	if s.IntervalMinutes <= 0 {
		return fmt.Errorf("scheduler.interval_minutes must be > 0")
	}
	if s.TopSignals <= 0 {
		return fmt.Errorf("scheduler.top_signals must be > 0")
	}
	if len(s.Symbols) == 0 {
		return fmt.Errorf("scheduler.symbols requires at least one symbol")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Telegram.Enabled {
		if n.Telegram.BotToken == "" || n.Telegram.ChatID == "" {
			return fmt.Errorf("telegram notification enabled but missing bot_token or chat_id")
		}
	}
	return nil
}
