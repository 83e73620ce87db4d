package reporting

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"pipectl/internal/connector"
	"pipectl/internal/health"
)

func TestBuildReportSuccess(t *testing.T) {
	report := BuildReport(
		[]ServiceOutcome{
			{Name: "postgres", State: health.StateHealthy},
			{Name: "connect", State: health.StateHealthy},
		},
		[]ConnectorOutcome{
			{Name: "inventory", Kind: connector.Registered},
			{Name: "audit", Kind: connector.AlreadyRegistered},
		},
	)

	assert.True(t, report.Success)
	assert.False(t, report.HasFailures())
	assert.Equal(t, 0, report.ExitCode())
}

func TestBuildReportRequiredServiceFailure(t *testing.T) {
	report := BuildReport(
		[]ServiceOutcome{
			{Name: "postgres", State: health.StateTimedOut, Err: errors.New("connection refused")},
			{Name: "connect", State: health.StateFailed, Err: errors.New("dependency postgres not healthy")},
		},
		nil,
	)

	assert.False(t, report.Success)
	assert.Equal(t, 1, report.ExitCode())
}

func TestBuildReportOptionalFailureKeepsSuccess(t *testing.T) {
	report := BuildReport(
		[]ServiceOutcome{
			{Name: "postgres", State: health.StateHealthy},
			{Name: "dashboard", State: health.StateTimedOut, Optional: true},
		},
		nil,
	)

	// A non-critical failure leaves the success flag intact but still
	// surfaces as a partial failure in the exit code.
	assert.True(t, report.Success)
	assert.True(t, report.HasFailures())
	assert.Equal(t, 1, report.ExitCode())
}

func TestBuildReportConnectorConflict(t *testing.T) {
	report := BuildReport(
		[]ServiceOutcome{{Name: "connect", State: health.StateHealthy}},
		[]ConnectorOutcome{{Name: "inventory", Kind: connector.ConfigConflict, Err: errors.New("differs")}},
	)

	assert.False(t, report.Success)
	assert.Equal(t, 1, report.ExitCode())
}

func TestBuildReportSuccessIsOrderIndependent(t *testing.T) {
	a := []ServiceOutcome{
		{Name: "broker", State: health.StateHealthy},
		{Name: "minio", State: health.StateHealthy},
	}
	b := []ServiceOutcome{a[1], a[0]}

	assert.Equal(t, BuildReport(a, nil).Success, BuildReport(b, nil).Success)
}

func TestRenderListsEveryItemWithCause(t *testing.T) {
	report := BuildReport(
		[]ServiceOutcome{
			{Name: "postgres", State: health.StateHealthy},
			{Name: "connect", State: health.StateFailed, Err: errors.New("dependency postgres not healthy")},
		},
		[]ConnectorOutcome{
			{Name: "inventory", Kind: connector.RegistrationFailed, Err: errors.New("status 500")},
		},
	)

	out := Render(report)
	assert.Contains(t, out, "postgres")
	assert.Contains(t, out, "connect")
	assert.Contains(t, out, "inventory")
	assert.Contains(t, out, "dependency postgres not healthy")
	assert.Contains(t, out, "status 500")
	assert.Contains(t, out, "Run failed")
}
