package observability

import (
	"context"
	"net/http"
	"testing"

	"github.com/riskibarqy/typer-league/internal/config"
	"github.com/riskibarqy/typer-league/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

func TestStartTelemetry_AllDisabled(t *testing.T) {
	telemetry, err := StartTelemetry(config.Config{
		ServiceName:    "typer-league-api",
		ServiceVersion: "dev",
		AppEnv:         config.EnvDev,
	}, logging.NewNop())
	require.NoError(t, err)
	require.Empty(t, telemetry.Components())
	require.Empty(t, telemetry.PprofAddr())
	require.NoError(t, telemetry.Shutdown(context.Background()))
}

func TestStartTelemetry_UptraceWithoutDSNStaysOff(t *testing.T) {
	telemetry, err := StartTelemetry(config.Config{UptraceEnabled: true, UptraceDSN: "  "}, nil)
	require.NoError(t, err)
	require.Empty(t, telemetry.Components())
}

func TestStartTelemetry_Pprof(t *testing.T) {
	telemetry, err := StartTelemetry(config.Config{PprofEnabled: true, PprofAddr: "127.0.0.1:0"}, logging.NewNop())
	require.NoError(t, err)
	require.Equal(t, []string{"pprof"}, telemetry.Components())

	resp, err := http.Get("http://" + telemetry.PprofAddr() + "/debug/pprof/cmdline")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, telemetry.Shutdown(context.Background()))
	require.Empty(t, telemetry.Components())
}

func TestStartTelemetry_PprofBindFailure(t *testing.T) {
	_, err := StartTelemetry(config.Config{PprofEnabled: true, PprofAddr: "256.0.0.1:bad"}, logging.NewNop())
	require.Error(t, err)
}
