// Package hierarchy reconstructs the Epic > Story/Task > Subtask tree from a
// flat batch of issues and flattens it into ordered, numbered spreadsheet
// rows.
//
// Issues are kept in a flat map keyed by issue key and all relationships are
// resolved through key lookups, so malformed parent links in the source data
// can never produce a true reference cycle. Traversals thread an explicit
// visited-key set and stop at MaxDepth.
package hierarchy

import (
	"sort"

	"github.com/mkazmier/worklog/internal/models"
)

// MaxDepth bounds parent-chain traversal. Chains deeper than this indicate
// corrupt link data; anything beyond is truncated, not an error.
const MaxDepth = 16

// OrphanPrefix keys the per-project buckets for issues that could not be
// attached to any Epic.
const OrphanPrefix = "__orphan__"

// Group is one Epic's subtree: the root, its direct children in retrieval
// order, and a map from any issue key to that issue's nested children.
// A Group with a nil Epic is an orphan bucket.
type Group struct {
	Key        string
	Epic       *models.Issue
	Children   []*models.Issue
	ChildrenOf map[string][]*models.Issue
}

// Orphan reports whether this group is an orphan bucket.
func (g *Group) Orphan() bool {
	return g.Epic == nil
}

// Resolve groups a flat batch of issues by their owning Epic. Issues with no
// resolvable Epic land in per-project orphan buckets. The returned groups are
// ordered by epic key with orphan buckets last; within a group, children keep
// the order of the input slice.
func Resolve(issues []*models.Issue) []*Group {
	byKey := make(map[string]*models.Issue, len(issues))
	for _, is := range issues {
		byKey[is.Key] = is
	}

	epicOf := make(map[string]string, len(issues))
	for _, is := range issues {
		visited := make(map[string]bool)
		path := epicPath(is, byKey, visited, 0)
		if len(path) > 0 {
			if root, ok := byKey[path[0]]; ok && root.IsEpic() {
				epicOf[is.Key] = path[0]
				is.Depth = len(path) - 1
			}
		}
	}

	// Inheritance pass: an issue whose own walk found nothing but whose
	// direct parent resolved to an Epic belongs to that Epic too. Run to a
	// fixed point so multi-level chains resolve regardless of input order.
	for changed := true; changed; {
		changed = false
		for _, is := range issues {
			if is.IsEpic() || epicOf[is.Key] != "" || is.ParentKey == "" {
				continue
			}
			parentEpic, ok := epicOf[is.ParentKey]
			if !ok || parentEpic == "" {
				continue
			}
			epicOf[is.Key] = parentEpic
			if parent, ok := byKey[is.ParentKey]; ok {
				is.Depth = parent.Depth + 1
			}
			changed = true
		}
	}

	groups := make(map[string]*Group)
	for _, is := range issues {
		if is.IsEpic() {
			if _, ok := groups[is.Key]; !ok {
				groups[is.Key] = newGroup(is.Key, is)
			}
		}
	}

	for _, is := range issues {
		if is.IsEpic() {
			continue
		}
		resolveParentType(is, byKey, epicOf)

		epicKey := epicOf[is.Key]
		if g, ok := groups[epicKey]; ok && epicKey != "" {
			addToGroup(g, is, byKey)
			continue
		}

		project := is.Project
		if project == "" {
			project = "unknown"
		}
		bucketKey := OrphanPrefix + project
		g, ok := groups[bucketKey]
		if !ok {
			g = newGroup(bucketKey, nil)
			groups[bucketKey] = g
		}
		g.Children = append(g.Children, is)
	}

	return sortGroups(groups)
}

func newGroup(key string, epic *models.Issue) *Group {
	return &Group{
		Key:        key,
		Epic:       epic,
		ChildrenOf: make(map[string][]*models.Issue),
	}
}

// addToGroup places an issue beneath its direct parent when that parent is a
// real intermediate node in the batch; otherwise it is a direct child of the
// Epic (linked via epic link, or via a parent key naming the Epic itself).
func addToGroup(g *Group, is *models.Issue, byKey map[string]*models.Issue) {
	if is.ParentKey != "" && is.ParentKey != g.Key {
		if _, ok := byKey[is.ParentKey]; ok {
			g.ChildrenOf[is.ParentKey] = append(g.ChildrenOf[is.ParentKey], is)
			return
		}
	}
	g.Children = append(g.Children, is)
}

// resolveParentType fills in the computed parent-type field: the type of the
// direct parent when one exists in the batch, else Epic when the issue
// resolved to an Epic.
func resolveParentType(is *models.Issue, byKey map[string]*models.Issue, epicOf map[string]string) {
	if is.ParentKey != "" {
		if parent, ok := byKey[is.ParentKey]; ok {
			is.ParentType = parent.Type
			return
		}
	}
	if epicOf[is.Key] != "" {
		is.ParentType = models.IssueTypeEpic
	}
}

// epicPath walks the parent chain upward and returns the key path from the
// owning Epic down to the issue, or nil when no Epic is reachable. A key seen
// twice aborts the branch: parent cycles mean corrupt upstream data, and the
// defensive answer is "no path", not an infinite loop.
func epicPath(is *models.Issue, byKey map[string]*models.Issue, visited map[string]bool, depth int) []string {
	if depth > MaxDepth || visited[is.Key] {
		return nil
	}
	visited[is.Key] = true

	if is.IsEpic() {
		return []string{is.Key}
	}

	// An epic link is only trusted when it names an actual Epic in the batch.
	if is.EpicKey != "" {
		if target, ok := byKey[is.EpicKey]; ok && target.IsEpic() {
			if is.ParentKey == "" {
				return []string{is.EpicKey, is.Key}
			}
			if parent, ok := byKey[is.ParentKey]; ok {
				if pp := epicPath(parent, byKey, visited, depth+1); len(pp) > 0 {
					return append(pp, is.Key)
				}
			}
		}
	}

	if is.ParentKey != "" {
		if parent, ok := byKey[is.ParentKey]; ok {
			if pp := epicPath(parent, byKey, visited, depth+1); len(pp) > 0 {
				return append(pp, is.Key)
			}
		}
	}

	// Last resort: trust a dangling epic link so the caller can still check
	// whether the named key is an Epic it knows about.
	if is.EpicKey != "" {
		return []string{is.EpicKey}
	}
	return nil
}

// sortGroups orders epic groups by key with orphan buckets trailing.
func sortGroups(groups map[string]*Group) []*Group {
	var epics, orphans []*Group
	for _, g := range groups {
		if g.Orphan() {
			orphans = append(orphans, g)
		} else {
			epics = append(epics, g)
		}
	}
	sort.Slice(epics, func(i, j int) bool { return epics[i].Key < epics[j].Key })
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].Key < orphans[j].Key })
	return append(epics, orphans...)
}

// EpicFor returns the owning Epic key for one issue in the batch, or "" when
// none can be resolved. An Epic owns itself. Exposed for diagnostics; Resolve
// is the batch path.
func EpicFor(is *models.Issue, issues []*models.Issue) string {
	byKey := make(map[string]*models.Issue, len(issues))
	for _, i := range issues {
		byKey[i.Key] = i
	}
	path := epicPath(is, byKey, make(map[string]bool), 0)
	if len(path) == 0 {
		return ""
	}
	if root, ok := byKey[path[0]]; ok && root.IsEpic() {
		return path[0]
	}
	return ""
}
