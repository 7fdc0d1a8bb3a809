package pose

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildRecord creates a feed record for every joint of the topology with
// the given confidence, joint i is placed at (10+10*i, 20+5*i)
func buildRecord(t *testing.T, topo *Topology, conf float64) Record {
	t.Helper()

	rec := make(Record)

	for _, j := range topo.Joints() {
		raw, err := json.Marshal(map[string]interface{}{
			"coords":                    []float64{float64(10 + 10*int(j.ID)), float64(20 + 5*int(j.ID))},
			"pointEstimationConfidence": []float64{conf},
		})
		require.NoError(t, err)
		rec[j.Name] = raw
	}

	return rec
}

// setConfidence overwrites a joint's confidence within a record
func setConfidence(t *testing.T, rec Record, name string, conf float64) {
	t.Helper()

	var p part
	require.NoError(t, json.Unmarshal(rec[name], &p))
	p.Confidence = []float64{conf}

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	rec[name] = raw
}

// mustID returns the id of a named joint
func mustID(t *testing.T, topo *Topology, name string) JointID {
	t.Helper()

	id, ok := topo.Lookup(name)
	require.True(t, ok, fmt.Sprintf("joint %s not found", name))
	return id
}
