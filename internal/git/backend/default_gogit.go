//go:build !gitcli

package backend

const DefaultKind = KindGoGit
