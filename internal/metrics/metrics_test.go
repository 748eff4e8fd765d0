package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterCollectors(reg)

	before := testutil.ToFloat64(NoteOperations.WithLabelValues("create"))
	NoteOperations.WithLabelValues("create").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(NoteOperations.WithLabelValues("create")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["cloudnotes_note_operations_total"])
}

func TestRegisterCollectors_Twice(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterCollectors(reg)
	require.Panics(t, func() { RegisterCollectors(reg) })
}
