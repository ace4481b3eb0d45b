package listing

type SortOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Query Query  `json:"-"`
}

// ProjectSortOptions are the choices of the projects "Sort By" menu. The first
// entry is the default.
var ProjectSortOptions = []SortOption{
	{Value: "newest", Label: "Newest", Query: Query{OrderBy: "createdAt", Order: Desc}},
	{Value: "priorityDesc", Label: "Priority: High-Low", Query: Query{OrderBy: "priority", Order: Desc}},
	{Value: "priorityAsc", Label: "Priority: Low-High", Query: Query{OrderBy: "priority", Order: Asc}},
}

func LookupSortOption(value string) SortOption {
	for _, opt := range ProjectSortOptions {
		if opt.Value == value {
			return opt
		}
	}
	return ProjectSortOptions[0]
}
