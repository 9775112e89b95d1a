package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hdanan/sycobench/internal/util"
)

// trialPayloadMaxRunes bounds response excerpts written to the log.
const trialPayloadMaxRunes = 240

var (
	mu      sync.Mutex
	logFile *os.File
)

func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writers []io.Writer
	writers = append(writers, os.Stdout)

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

func LogEvent(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Println(msg)
}

// LogTrial writes one trial lifecycle line: stage is the pipeline step
// (prompt, response, embed, persist), key the trial's natural key.
// Payloads are truncated so a verbose model cannot flood the log.
func LogTrial(stage, key string, payload any) {
	msg := buildTrialMessage(stage, key, payload)
	log.Println(msg)
}

func buildTrialMessage(stage, key string, payload any) string {
	stageValue := strings.TrimSpace(stage)
	if stageValue != "" {
		stageValue = strings.ToUpper(stageValue)
	}
	keyValue := strings.TrimSpace(key)
	if keyValue == "" {
		keyValue = "unknown"
	}
	parts := []string{fmt.Sprintf("[%s]", stageValue)}
	parts = append(parts, fmt.Sprintf("trial=%s", keyValue))
	parts = append(parts, fmt.Sprintf("payload=%s", util.TruncateRunes(formatPayload(payload), trialPayloadMaxRunes)))
	return strings.Join(parts, " ")
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
