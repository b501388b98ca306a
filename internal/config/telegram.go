package config

type TelegramConfig struct {
	ApiToken      string `yaml:"token"`
	PollTimeout   int    `yaml:"poll-timeout-seconds"`
	HandleTimeout int    `yaml:"handle-timeout-seconds"`
}

func (t *TelegramConfig) Token() string {
	return t.ApiToken
}

func (t *TelegramConfig) PollTimeoutSeconds() int {
	if t.PollTimeout <= 0 {
		return 60
	}
	return t.PollTimeout
}

func (t *TelegramConfig) HandleTimeoutSeconds() int {
	if t.HandleTimeout <= 0 {
		return 5
	}
	return t.HandleTimeout
}
