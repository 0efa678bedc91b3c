package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Capture: CaptureConfig{
			Enabled:         true,
			BufferSize:      1000,
			FlushIntervalMS: 1000,
			FlushBatch:      100,
			Devices:         []string{},
			Demo:            false,
		},
		Probe: ProbeConfig{
			TimeoutMS: 500,
			Browsers:  []string{},
		},
		Query: QueryConfig{
			KnownApps: DefaultKnownApps(),
			Rewrite:   true,
		},
		Summarize: SummarizeConfig{
			Enabled:         true,
			IntervalMinutes: 5,
			ExtractTags:     true,
		},
		Storage: StorageConfig{
			Backend:         "sqlite",
			Driver:          "sqlite3",
			Path:            "~/.local/share/secondbrain",
			SQLiteFile:      "secondbrain.db",
			PostgrestURL:    "",
			PostgrestKeyEnv: "SUPABASE_KEY",
		},
		Retention: RetentionConfig{
			Days:       30,
			ArchiveDir: "archive",
		},
		Recall: RecallConfig{
			Host:                  "127.0.0.1",
			Port:                  8080,
			RequestTimeoutSeconds: 30,
			MaxRequestSize:        65536,
			AppAliases:            DefaultAppAliases(),
		},
		LLM: LLMConfig{
			Provider:       "ollama",
			Model:          "llama3.2",
			BaseURL:        "http://localhost:11434",
			APIKeyEnv:      "OPENAI_API_KEY",
			TimeoutSeconds: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}
