package git

import (
	"fmt"
)

// BranchLabels maps commit hashes to the branch decorations "git log
// --decorate" would print for them, HEAD first.
func (r *Repository) BranchLabels() (map[string][]string, error) {
	it, err := r.Branches(BranchAll)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	labels := map[string][]string{}
	for branch, err := range it.Seq() {
		if err != nil {
			return nil, err
		}
		if branch.Hash == "" || branch.Name == "" {
			continue
		}
		labels[branch.Hash] = append(labels[branch.Hash], branch.Name)
	}
	if err := it.Close(); err != nil {
		return nil, err
	}

	headHash, headName, ok, err := r.Head()
	if err != nil {
		return nil, err
	}
	if ok && headHash != "" {
		label := "HEAD"
		if headName != "HEAD" {
			label = fmt.Sprintf("HEAD -> %s", headName)
			labels[headHash] = removeLabel(labels[headHash], headName)
		}
		labels[headHash] = append([]string{label}, labels[headHash]...)
	}
	return labels, nil
}

func removeLabel(labels []string, name string) []string {
	out := labels[:0]
	for _, l := range labels {
		if l != name {
			out = append(out, l)
		}
	}
	return out
}
