// Package action defines atomic actions, the indivisible runtime effects on a
// single deployment, and their translation into orchestration commands.
package action

import "fmt"

// Kind enumerates the atomic effects a plan can have on one deployment.
type Kind int

const (
	Add Kind = iota
	Remove
	Start
	Stop
)

func (k Kind) String() string {
	switch k {
	case Add:
		return "add"
	case Remove:
		return "remove"
	case Start:
		return "start"
	case Stop:
		return "stop"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Action is an atomic action on one deployment. Manifest and Namespace are
// carried along so the command mapping stays a pure function of the value.
type Action struct {
	Kind       Kind
	Deployment string
	Manifest   string
	Namespace  string
}

// New returns an action of the given kind.
func New(kind Kind, deployment, manifest, namespace string) Action {
	return Action{Kind: kind, Deployment: deployment, Manifest: manifest, Namespace: namespace}
}

// Key identifies the action semantically: two actions with the same kind on
// the same deployment are the same action wherever they appear.
func (a Action) Key() string {
	return a.Kind.String() + " " + a.Deployment
}

func (a Action) String() string {
	return a.Key()
}
