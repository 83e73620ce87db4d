package reporting

import (
	"fmt"
	"strings"
	"time"

	"pipectl/internal/connector"
	"pipectl/internal/health"
)

// Render produces the human-readable form of a run report: one line per
// service and connector with its terminal state and, for failures, the cause.
func Render(r RunReport) string {
	var b strings.Builder

	b.WriteString(styleHeader.Render("Services"))
	b.WriteByte('\n')
	for _, svc := range r.Services {
		b.WriteString(renderServiceLine(svc))
		b.WriteByte('\n')
	}

	if len(r.Connectors) > 0 {
		b.WriteString(styleHeader.Render("Connectors"))
		b.WriteByte('\n')
		for _, conn := range r.Connectors {
			b.WriteString(renderConnectorLine(conn))
			b.WriteByte('\n')
		}
	}

	if r.Success {
		b.WriteString(styleHealthy.Render("Run succeeded"))
	} else {
		b.WriteString(styleFailed.Render("Run failed"))
	}
	b.WriteByte('\n')

	return b.String()
}

func renderServiceLine(svc ServiceOutcome) string {
	state := svc.State
	var styled string
	switch state {
	case health.StateHealthy:
		styled = styleHealthy.Render(string(state))
	case health.StateCancelled:
		styled = styleWarn.Render(string(state))
	default:
		styled = styleFailed.Render(string(state))
	}

	line := fmt.Sprintf("  %-20s %s", svc.Name, styled)
	if svc.Elapsed > 0 {
		line += styleMuted.Render(fmt.Sprintf(" (%s)", svc.Elapsed.Round(10*time.Millisecond)))
	}
	if svc.Optional {
		line += styleMuted.Render(" [optional]")
	}
	if svc.Err != nil && state != health.StateHealthy {
		line += "\n" + styleMuted.Render(fmt.Sprintf("    cause: %v", svc.Err))
	}
	return line
}

func renderConnectorLine(conn ConnectorOutcome) string {
	var styled string
	switch {
	case conn.Kind.Success():
		styled = styleHealthy.Render(string(conn.Kind))
	case conn.Kind == connector.Cancelled:
		styled = styleWarn.Render(string(conn.Kind))
	default:
		styled = styleFailed.Render(string(conn.Kind))
	}

	line := fmt.Sprintf("  %-20s %s", conn.Name, styled)
	if conn.Optional {
		line += styleMuted.Render(" [optional]")
	}
	if conn.Err != nil && !conn.Kind.Success() {
		line += "\n" + styleMuted.Render(fmt.Sprintf("    cause: %v", conn.Err))
	}
	return line
}
