package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		action Action
		want   []string
	}{
		{
			name:   "add with manifest",
			action: New(Add, "api", "/srv/api.yaml", "shop"),
			want: []string{
				"kubectl apply -f '/srv/api.yaml'",
				"kubectl scale deployment api --replicas=0 -n shop",
				"kubectl wait pods --for=delete -l app=api --timeout=600s -n shop",
				"kubectl wait deployment/api --for=condition=Available=True --timeout=600s -n shop",
			},
		},
		{
			name:   "add without manifest",
			action: New(Add, "api", "", "shop"),
			want: []string{
				"kubectl apply -f <MANIFEST-PATH-NOT-SPECIFIED!>",
				"kubectl scale deployment api --replicas=0 -n shop",
				"kubectl wait pods --for=delete -l app=api --timeout=600s -n shop",
				"kubectl wait deployment/api --for=condition=Available=True --timeout=600s -n shop",
			},
		},
		{
			name:   "remove",
			action: New(Remove, "db", "db.yaml", "shop"),
			want: []string{
				"kubectl delete deployment db -n shop",
				"kubectl wait --for=delete deployment db --timeout=600s -n shop",
				"kubectl wait pods --for=delete -l app=db --timeout=600s -n shop",
			},
		},
		{
			name:   "start",
			action: New(Start, "db", "", "shop"),
			want: []string{
				"kubectl scale deployment db --replicas=1 -n shop",
				"kubectl wait pods -l app=db --for=condition=Ready=True --timeout=600s -n shop",
			},
		},
		{
			name:   "stop",
			action: New(Stop, "A", "", "Typical_Graph"),
			want: []string{
				"kubectl scale deployment A --replicas=0 -n Typical_Graph",
				"kubectl wait pods --for=delete -l app=A --timeout=600s -n Typical_Graph",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Commands(tt.action))
		})
	}
}

func TestActionKey(t *testing.T) {
	a := New(Start, "X", "x.yaml", "ns1")
	b := New(Start, "X", "", "ns2")

	assert.Equal(t, "start X", a.Key())
	assert.Equal(t, a.Key(), b.Key(), "identity ignores manifest and namespace")
	assert.NotEqual(t, a.Key(), New(Stop, "X", "", "").Key())
}
