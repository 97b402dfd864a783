package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.TranscriptsDir == "" {
		cfg.Storage.TranscriptsDir = "/usr/local/var/hearclear/transcripts"
	}
	if cfg.Storage.AudioDir == "" {
		cfg.Storage.AudioDir = "/usr/local/var/hearclear/uploads"
	}
	if cfg.Semantic.BaseURL == "" {
		cfg.Semantic.BaseURL = "http://localhost:11434"
	}
	if cfg.Semantic.Model == "" {
		cfg.Semantic.Model = "deepseek-llm"
	}
	if cfg.Semantic.TimeoutSeconds == 0 {
		cfg.Semantic.TimeoutSeconds = 10
	}
}
