package initializer

import (
	"io"
	"log/slog"
	"os"

	"github.com/amirasaad/ledger/pkg/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	infoTxtColor  = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warnTxtColor  = lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}
	errorTxtColor = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF6B6B"}
	debugTxtColor = lipgloss.AdaptiveColor{Light: "#7E57C2", Dark: "#7E57C2"}
)

func setupLogger(cfg *config.Log) *slog.Logger {
	return newLogger(os.Stdout, cfg)
}

// newLogger builds the charmbracelet-backed slog logger and makes it the
// process default.
func newLogger(w io.Writer, cfg *config.Log) *slog.Logger {
	formattersMap := map[string]log.Formatter{
		"json":   log.JSONFormatter,
		"text":   log.TextFormatter,
		"logfmt": log.LogfmtFormatter,
	}
	formatter := log.TextFormatter
	if f, ok := formattersMap[cfg.Format]; ok {
		formatter = f
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           log.Level(cfg.Level),
		Prefix:          cfg.Prefix,
		Formatter:       formatter,
	})
	logger.SetStyles(ledgerStyles())

	slogger := slog.New(logger)
	slog.SetDefault(slogger)
	return slogger
}

// ledgerStyles colors levels and highlights the keys operators grep for.
func ledgerStyles() *log.Styles {
	styles := log.DefaultStyles()

	levels := map[log.Level]struct {
		icon  string
		color lipgloss.AdaptiveColor
	}{
		log.ErrorLevel: {"❌", errorTxtColor},
		log.WarnLevel:  {"⚠️", warnTxtColor},
		log.InfoLevel:  {"ℹ️", infoTxtColor},
		log.DebugLevel: {"🐛", debugTxtColor},
	}
	for level, s := range levels {
		styles.Levels[level] = lipgloss.NewStyle().
			SetString(s.icon).
			Bold(true).
			Padding(0, 1).
			Foreground(s.color)
	}

	styles.Keys["error"] = lipgloss.NewStyle().Foreground(errorTxtColor)
	styles.Values["error"] = lipgloss.NewStyle().Bold(true)
	for _, key := range []string{"account_id", "source_account_id", "destination_account_id", "transaction_id"} {
		styles.Keys[key] = lipgloss.NewStyle().Foreground(infoTxtColor)
	}
	styles.Keys["amount"] = lipgloss.NewStyle().Foreground(warnTxtColor)
	styles.Values["amount"] = lipgloss.NewStyle().Bold(true)
	styles.Keys["op"] = lipgloss.NewStyle().Foreground(debugTxtColor)
	return styles
}
