package ingest

import (
	"regexp"
	"strings"
	"time"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
)

// LogDateFormat is the timestamp layout of preupg.log lines
const LogDateFormat = "2006-01-02 15:04"

var (
	logLine  = regexp.MustCompile(`^preupg\.log\.(ERROR|WARNING|INFO|DEBUG): (\S+) (\S+) (.+)`)
	riskLine = regexp.MustCompile(`^preupg\.risk\.(\w+): (.+)`)
)

// ParseCheckOutput splits the stderr import of a check into log lines and
// risks. Lines matching neither format are ignored. A log line whose date
// cannot be parsed keeps a nil date.
func ParseCheckOutput(text string) ([]models.TestLog, []models.Risk) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var logs []models.TestLog
	var risks []models.Risk
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")

		if m := logLine.FindStringSubmatch(line); m != nil {
			entry := models.TestLog{Level: m[1], Message: m[4]}
			if date, err := time.Parse(LogDateFormat, m[2]+" "+m[3]); err == nil {
				entry.Date = &date
			}
			logs = append(logs, entry)
			continue
		}

		if m := riskLine.FindStringSubmatch(line); m != nil {
			risks = append(risks, models.Risk{
				Level:   models.ParseRiskLevel(m[1]),
				Message: m[2],
			})
		}
	}
	return logs, risks
}
