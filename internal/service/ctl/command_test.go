package ctl

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// TestParseReadings covers numbers, booleans, nulls and malformed input.
func TestParseReadings(t *testing.T) {
	t.Parallel()

	readings, err := ParseReadings([]string{
		"suction_pressure=104.5",
		" flow_switch = true",
		"phase_ok=FALSE",
		"oil_pressure=null",
	})
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"suction_pressure": 104.5,
		"flow_switch":      true,
		"phase_ok":         false,
		"oil_pressure":     nil,
	}, readings)

	for _, bad := range []string{"suction_pressure", "=1", "suction_pressure=", "suction_pressure=high"} {
		_, err = ParseReadings([]string{bad})
		require.ErrorIs(t, err, ErrBadReading, bad)
	}

	_, err = ParseReadings(nil)
	require.ErrorIs(t, err, ErrNoReadings)
}

// TestPrintMessage renders Struct replies as JSON.
func TestPrintMessage(t *testing.T) {
	t.Parallel()

	msg, err := structpb.NewStruct(map[string]any{"any_trip": true, "tracked": 3})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printMessage(&buf, msg))

	var decoded structpb.Struct
	require.NoError(t, protojson.Unmarshal(buf.Bytes(), &decoded))
	require.True(t, decoded.GetFields()["any_trip"].GetBoolValue())
	require.InDelta(t, 3, decoded.GetFields()["tracked"].GetNumberValue(), 0)
}

// TestCommands_MissingConfig fails before dialing when settings cannot be read.
func TestCommands_MissingConfig(t *testing.T) {
	t.Parallel()

	opts := &Options{ConfigPath: t.TempDir() + "/missing.yaml"}

	require.Error(t, List(context.Background(), opts))
	require.Error(t, Push(context.Background(), opts, []string{"suction_pressure=100"}))
}
