package backend

import "time"

type Signature struct {
	Name  string
	Email string
	When  time.Time
}

type Commit struct {
	Hash         string
	ParentHashes []string
	Author       Signature
	Committer    Signature
	Message      string
}

type RefKind uint8

const (
	RefKindBranch RefKind = iota
	RefKindRemoteBranch
	RefKindTag
)

func (k RefKind) String() string {
	switch k {
	case RefKindBranch:
		return "branch"
	case RefKindRemoteBranch:
		return "remote"
	case RefKindTag:
		return "tag"
	default:
		return "unknown"
	}
}

type Ref struct {
	Hash   string
	Kind   RefKind
	Name   string // short name: main, origin/main, v1
	IsHead bool
}

// BranchKind selects which branches a branch cursor walks.
type BranchKind uint8

const (
	BranchLocal BranchKind = iota
	BranchRemote
	BranchAll
)

func (k BranchKind) String() string {
	switch k {
	case BranchLocal:
		return "local"
	case BranchRemote:
		return "remote"
	case BranchAll:
		return "all"
	default:
		return "unknown"
	}
}

func ParseBranchKind(s string) (BranchKind, bool) {
	switch s {
	case "", "local":
		return BranchLocal, true
	case "remote":
		return BranchRemote, true
	case "all":
		return BranchAll, true
	default:
		return BranchLocal, false
	}
}

func (k BranchKind) includes(ref RefKind) bool {
	switch k {
	case BranchLocal:
		return ref == RefKindBranch
	case BranchRemote:
		return ref == RefKindRemoteBranch
	case BranchAll:
		return ref == RefKindBranch || ref == RefKindRemoteBranch
	default:
		return false
	}
}
