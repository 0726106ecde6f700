package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/styxlabs/shieldpool/internal/shield"
)

func TestRejectionReasonMapping(t *testing.T) {
	cases := []struct {
		err    error
		reason string
	}{
		{shield.ErrDoubleSpend, "double_spend"},
		{fmt.Errorf("wrapped: %w", shield.ErrDoubleSpend), "double_spend"},
		{shield.ErrInvalidProof, "invalid_proof"},
		{shield.ErrValueConservation, "value_conservation"},
		{shield.ErrCapacity, "capacity"},
		{shield.ErrMalformedInput, "malformed_input"},
		{fmt.Errorf("something else"), "other"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.reason, rejectionReason(tc.err))
	}
}

func TestHealthChecker(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.RegisterComponent("ok", func() error { return nil })
	hc.RegisterComponent("broken", func() error { return fmt.Errorf("down") })

	health := hc.CheckHealth()
	require.Equal(t, Unhealthy, health.OverallStatus)
	require.Len(t, health.Components, 2)

	resp := CreateHealthResponse(health)
	require.Equal(t, "error", resp.Status)
}

func TestHealthCheckerDegraded(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.RegisterComponent("ok", func() error { return nil })
	hc.RegisterComponent("strained", func() error {
		return fmt.Errorf("%w: one leaf left", ErrDegraded)
	})

	health := hc.CheckHealth()
	require.Equal(t, Degraded, health.OverallStatus)

	resp := CreateHealthResponse(health)
	require.Equal(t, "warning", resp.Status)

	// Unhealthy takes precedence over Degraded.
	hc.RegisterComponent("broken", func() error { return fmt.Errorf("down") })
	require.Equal(t, Unhealthy, hc.CheckHealth().OverallStatus)
}

func TestHealthCheckerAllHealthy(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.RegisterComponent("ok", func() error { return nil })

	health := hc.CheckHealth()
	require.Equal(t, Healthy, health.OverallStatus)
	require.Equal(t, "success", CreateHealthResponse(health).Status)
}
