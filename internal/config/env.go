package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Environment variables that override file configuration.
const (
	EnvDBPath      = "SECONDBRAIN_DB"
	EnvLLMProvider = "SECONDBRAIN_LLM_PROVIDER"
	EnvOllamaHost  = "OLLAMA_HOST"
	EnvRecallAddr  = "SECONDBRAIN_RECALL_ADDR"
)

// ApplyEnv loads a .env file from the working directory, if present, and
// applies environment overrides on top of cfg. A missing or unreadable .env
// is logged and otherwise ignored.
func (c *Config) ApplyEnv(log logrus.FieldLogger) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("could not load .env file, continuing with process environment")
	}

	if v := os.Getenv(EnvDBPath); v != "" {
		c.Storage.Path, c.Storage.SQLiteFile = splitDBPath(v)
	}
	if v := os.Getenv(EnvLLMProvider); v != "" {
		c.LLM.Provider = strings.ToLower(v)
	}
	if v := os.Getenv(EnvOllamaHost); v != "" && c.LLM.Provider == "ollama" {
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			v = "http://" + v
		}
		c.LLM.BaseURL = v
	}
	if v := os.Getenv(EnvRecallAddr); v != "" {
		host, port, ok := splitHostPort(v)
		if !ok {
			log.WithField("value", v).Warnf("ignoring malformed %s", EnvRecallAddr)
			return
		}
		c.Recall.Host = host
		c.Recall.Port = port
	}
}

func splitDBPath(p string) (dir, file string) {
	i := strings.LastIndexAny(p, `/\`)
	if i < 0 {
		return ".", p
	}
	return p[:i], p[i+1:]
}

func splitHostPort(addr string) (string, int, bool) {
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return "", 0, false
	}
	port, err := strconv.Atoi(addr[i+1:])
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, false
	}
	host := addr[:i]
	if host == "" {
		host = "127.0.0.1"
	}
	return host, port, true
}
