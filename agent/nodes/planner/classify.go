package plannernode

import "strings"

// roleRule maps a query keyword to a target role label. Rules are checked in
// order and the first hit wins.
type roleRule struct {
	keyword string
	label   string
}

var roleRules = []roleRule{
	{keyword: "solution architect", label: "Solution Architect"},
	{keyword: "architect", label: "Solution Architect"},
	{keyword: "cloud", label: "Cloud Engineer"},
	{keyword: "technical lead", label: "Technical Lead"},
	{keyword: "tech lead", label: "Technical Lead"},
	{keyword: "presales", label: "Presales Engineer"},
	{keyword: "pre-sales", label: "Presales Engineer"},
	{keyword: "consultant", label: "IT Consultant"},
	{keyword: "developer", label: "Software Developer"},
}

// DefaultTargetRole is used when no rule matches the query.
const DefaultTargetRole = "IT Professional"

// ClassifyTargetRole derives a coarse target role label from the query text.
func ClassifyTargetRole(query string) string {
	lowered := strings.ToLower(query)
	for _, rule := range roleRules {
		if strings.Contains(lowered, rule.keyword) {
			return rule.label
		}
	}
	return DefaultTargetRole
}
