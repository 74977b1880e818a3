// Package navigation provides utilities for managing navigation state, breadcrumbs and the
// permission filtered menu.
package navigation

import (
	"github.com/partdesk/partdesk/internal/auth"
)

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string
	URL    string
	Active bool
}

// MenuItem is a link in the sidebar, shown when Permission is granted.
type MenuItem struct {
	Title      string
	URL        string
	Section    string
	Page       string
	Permission auth.Key
}

// MenuSection groups menu items under a heading.
type MenuSection struct {
	Title string
	Items []MenuItem
}

// Context represents the navigation context for a page.
type Context struct {
	ActiveSection string
	ActivePage    string
	Breadcrumbs   []BreadcrumbItem
	PageTitle     string
	Menu          []MenuSection
}

var sidebar = []MenuSection{ //nolint:gochecknoglobals
	{
		Title: "Overview",
		Items: []MenuItem{
			{Title: "Dashboard", URL: "/dashboard", Section: "dashboard", Page: "dashboard", Permission: auth.PermDashboardView},
		},
	},
	{
		Title: "Admin",
		Items: []MenuItem{
			{Title: "Roles", URL: "/admin/roles", Section: "admin", Page: "roles", Permission: auth.PermRolesView},
		},
	},
}

// NewContext creates a new navigation context.
func NewContext(pageTitle, activeSection, activePage string) *Context {
	return &Context{
		PageTitle:     pageTitle,
		ActiveSection: activeSection,
		ActivePage:    activePage,
		Breadcrumbs:   make([]BreadcrumbItem, 0),
	}
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// WithMenu fills the sidebar with the entries the capabilities allow.
func (c *Context) WithMenu(caps auth.Capabilities) *Context {
	c.Menu = Menu(caps)

	return c
}

// IsActive checks if the given section and page match the current context.
func (c *Context) IsActive(section, page string) bool {
	return c.ActiveSection == section && c.ActivePage == page
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}

// Menu returns the sidebar filtered by caps. Sections without a visible item are dropped.
func Menu(caps auth.Capabilities) []MenuSection {
	out := make([]MenuSection, 0, len(sidebar))

	for _, section := range sidebar {
		keys := make([]string, 0, len(section.Items))
		for _, item := range section.Items {
			keys = append(keys, string(item.Permission))
		}

		if !caps.CanAny(keys...) {
			continue
		}

		visible := MenuSection{Title: section.Title}

		for _, item := range section.Items {
			if caps.Can(string(item.Permission)) {
				visible.Items = append(visible.Items, item)
			}
		}

		out = append(out, visible)
	}

	return out
}
