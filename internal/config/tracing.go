package config

type TracingConfig struct {
	Service string `yaml:"service-name"`
	On      bool   `yaml:"enabled"`
}

func (s *TracingConfig) ServiceName() string {
	if s.Service == "" {
		return "expense-tracker"
	}
	return s.Service
}

func (s *TracingConfig) Enabled() bool {
	return s.On
}
