package action

import "fmt"

// MissingManifest is substituted into the apply command of an added
// deployment that has no manifest path, so the failure is obvious in logs.
const MissingManifest = "<MANIFEST-PATH-NOT-SPECIFIED!>"

const waitTimeout = "600s"

// Commands maps an action to the ordered kubectl commands that realize it.
func Commands(a Action) []string {
	name, ns := a.Deployment, a.Namespace
	switch a.Kind {
	case Add:
		apply := "kubectl apply -f " + MissingManifest
		if a.Manifest != "" {
			apply = fmt.Sprintf("kubectl apply -f '%s'", a.Manifest)
		}
		return []string{
			apply,
			scale(name, ns, 0),
			waitPodsDeleted(name, ns),
			fmt.Sprintf("kubectl wait deployment/%s --for=condition=Available=True --timeout=%s -n %s", name, waitTimeout, ns),
		}
	case Remove:
		return []string{
			fmt.Sprintf("kubectl delete deployment %s -n %s", name, ns),
			fmt.Sprintf("kubectl wait --for=delete deployment %s --timeout=%s -n %s", name, waitTimeout, ns),
			waitPodsDeleted(name, ns),
		}
	case Start:
		return []string{
			scale(name, ns, 1),
			fmt.Sprintf("kubectl wait pods -l app=%s --for=condition=Ready=True --timeout=%s -n %s", name, waitTimeout, ns),
		}
	case Stop:
		return []string{
			scale(name, ns, 0),
			waitPodsDeleted(name, ns),
		}
	default:
		panic(fmt.Sprintf("action: no commands for %v", a.Kind))
	}
}

func scale(name, ns string, replicas int) string {
	return fmt.Sprintf("kubectl scale deployment %s --replicas=%d -n %s", name, replicas, ns)
}

func waitPodsDeleted(name, ns string) string {
	return fmt.Sprintf("kubectl wait pods --for=delete -l app=%s --timeout=%s -n %s", name, waitTimeout, ns)
}
