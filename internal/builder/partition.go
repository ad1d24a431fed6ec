package builder

import (
	"sort"
	"strings"

	"github.com/altafino/folder-import/internal/models"
)

// Partition splits the subfolder names into prefix, main and suffix groups.
//
// Prefix rules are applied in order, then suffix rules; a rule takes every
// unassigned entry whose name equals its folder name case-insensitively. Every
// remaining entry gets the main type and the main group is sorted ascending by
// byte order. The result covers entries exactly once.
func Partition(entries []string, rules models.RuleSet) models.FolderPartition {
	assigned := make([]bool, len(entries))

	match := func(list []models.Rule) []models.Assignment {
		var out []models.Assignment
		for _, rule := range list {
			for i, name := range entries {
				if assigned[i] || !strings.EqualFold(name, rule.FolderName) {
					continue
				}
				assigned[i] = true
				out = append(out, models.Assignment{Folder: name, StructureType: rule.StructureType})
			}
		}
		return out
	}

	var p models.FolderPartition
	p.Prefix = match(rules.Prefix)
	p.Suffix = match(rules.Suffix)

	var main []string
	for i, name := range entries {
		if !assigned[i] {
			main = append(main, name)
		}
	}
	sort.Strings(main)

	for _, name := range main {
		p.Main = append(p.Main, models.Assignment{
			Folder:         name,
			StructureType:  rules.MainType,
			CreateMetadata: true,
		})
	}
	return p
}
