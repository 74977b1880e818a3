package auth

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Key identifies one grantable capability in module.action form (e.g. "items.view").
// The set of valid keys is closed and ships with the binary.
type Key string

// Module returns the part before the dot.
func (k Key) Module() string {
	module, _, _ := strings.Cut(string(k), ".")
	return module
}

// Action returns the part after the dot.
func (k Key) Action() string {
	_, action, _ := strings.Cut(string(k), ".")
	return action
}

// Permission keys. Every key a role may grant is listed here.
const (
	// PermDashboardView allows viewing the dashboard.
	PermDashboardView Key = "dashboard.view"

	PermItemsView   Key = "items.view"
	PermItemsCreate Key = "items.create"
	PermItemsEdit   Key = "items.edit"
	PermItemsDelete Key = "items.delete"

	PermCustomersView   Key = "customers.view"
	PermCustomersCreate Key = "customers.create"
	PermCustomersEdit   Key = "customers.edit"
	PermCustomersDelete Key = "customers.delete"

	PermLocationsView   Key = "locations.view"
	PermLocationsCreate Key = "locations.create"
	PermLocationsEdit   Key = "locations.edit"
	PermLocationsDelete Key = "locations.delete"

	PermBatchesView   Key = "batches.view"
	PermBatchesCreate Key = "batches.create"
	PermBatchesEdit   Key = "batches.edit"
	PermBatchesDelete Key = "batches.delete"

	PermQuotationsView    Key = "quotations.view"
	PermQuotationsCreate  Key = "quotations.create"
	PermQuotationsEdit    Key = "quotations.edit"
	PermQuotationsDelete  Key = "quotations.delete"
	PermQuotationsConvert Key = "quotations.convert"

	PermOrdersView   Key = "orders.view"
	PermOrdersCreate Key = "orders.create"
	PermOrdersEdit   Key = "orders.edit"
	PermOrdersDelete Key = "orders.delete"
	PermOrdersCancel Key = "orders.cancel"

	PermDeliveriesView   Key = "deliveries.view"
	PermDeliveriesCreate Key = "deliveries.create"
	PermDeliveriesEdit   Key = "deliveries.edit"
	PermDeliveriesDelete Key = "deliveries.delete"

	PermShipmentsView   Key = "shipments.view"
	PermShipmentsCreate Key = "shipments.create"
	PermShipmentsEdit   Key = "shipments.edit"
	PermShipmentsDelete Key = "shipments.delete"

	PermInvoicesView   Key = "invoices.view"
	PermInvoicesCreate Key = "invoices.create"
	PermInvoicesEdit   Key = "invoices.edit"
	PermInvoicesDelete Key = "invoices.delete"

	PermPaymentsView   Key = "payments.view"
	PermPaymentsCreate Key = "payments.create"
	PermPaymentsEdit   Key = "payments.edit"
	PermPaymentsDelete Key = "payments.delete"

	PermReturnsView    Key = "returns.view"
	PermReturnsCreate  Key = "returns.create"
	PermReturnsEdit    Key = "returns.edit"
	PermReturnsDelete  Key = "returns.delete"
	PermReturnsApprove Key = "returns.approve"

	// PermUsersView allows listing user accounts.
	PermUsersView   Key = "users.view"
	PermUsersCreate Key = "users.create"
	PermUsersEdit   Key = "users.edit"
	PermUsersDelete Key = "users.delete"

	// PermRolesView allows listing roles and the permission catalog.
	PermRolesView   Key = "roles.view"
	PermRolesCreate Key = "roles.create"
	PermRolesEdit   Key = "roles.edit"
	PermRolesDelete Key = "roles.delete"
)

// Template names.
const (
	TemplateAdministrator = "Administrator"
	TemplateViewer        = "Viewer"
	TemplateSales         = "Sales"
	TemplateWarehouse     = "Warehouse"
)

var keyPattern = regexp.MustCompile(`^[a-z_]+\.[a-z_]+$`)

// registry is the ordered catalog of every valid key.
var registry = []Key{
	PermDashboardView,
	PermItemsView, PermItemsCreate, PermItemsEdit, PermItemsDelete,
	PermCustomersView, PermCustomersCreate, PermCustomersEdit, PermCustomersDelete,
	PermLocationsView, PermLocationsCreate, PermLocationsEdit, PermLocationsDelete,
	PermBatchesView, PermBatchesCreate, PermBatchesEdit, PermBatchesDelete,
	PermQuotationsView, PermQuotationsCreate, PermQuotationsEdit, PermQuotationsDelete, PermQuotationsConvert,
	PermOrdersView, PermOrdersCreate, PermOrdersEdit, PermOrdersDelete, PermOrdersCancel,
	PermDeliveriesView, PermDeliveriesCreate, PermDeliveriesEdit, PermDeliveriesDelete,
	PermShipmentsView, PermShipmentsCreate, PermShipmentsEdit, PermShipmentsDelete,
	PermInvoicesView, PermInvoicesCreate, PermInvoicesEdit, PermInvoicesDelete,
	PermPaymentsView, PermPaymentsCreate, PermPaymentsEdit, PermPaymentsDelete,
	PermReturnsView, PermReturnsCreate, PermReturnsEdit, PermReturnsDelete, PermReturnsApprove,
	PermUsersView, PermUsersCreate, PermUsersEdit, PermUsersDelete,
	PermRolesView, PermRolesCreate, PermRolesEdit, PermRolesDelete,
}

var registered = func() map[Key]struct{} {
	set := make(map[Key]struct{}, len(registry))
	for _, k := range registry {
		set[k] = struct{}{}
	}

	return set
}()

// templates maps a template name to its bundle of keys.
var templates = map[string][]Key{
	TemplateAdministrator: registry,
	TemplateViewer:        keysWithAction("view"),
	TemplateSales: {
		PermDashboardView,
		PermItemsView,
		PermCustomersView, PermCustomersCreate, PermCustomersEdit,
		PermQuotationsView, PermQuotationsCreate, PermQuotationsEdit, PermQuotationsConvert,
		PermOrdersView, PermOrdersCreate, PermOrdersEdit, PermOrdersCancel,
		PermInvoicesView, PermPaymentsView,
	},
	TemplateWarehouse: {
		PermDashboardView,
		PermItemsView, PermItemsCreate, PermItemsEdit,
		PermLocationsView, PermLocationsCreate, PermLocationsEdit,
		PermBatchesView, PermBatchesCreate, PermBatchesEdit,
		PermDeliveriesView, PermDeliveriesCreate, PermDeliveriesEdit,
		PermShipmentsView, PermShipmentsCreate, PermShipmentsEdit,
		PermReturnsView, PermReturnsCreate,
	},
}

// AllKeys returns every registered key in catalog order.
func AllKeys() []Key {
	out := make([]Key, len(registry))
	copy(out, registry)

	return out
}

// IsRegistered reports whether k is part of the catalog.
func IsRegistered(k Key) bool {
	_, ok := registered[k]
	return ok
}

// Templates returns a copy of the named role templates.
func Templates() map[string][]Key {
	out := make(map[string][]Key, len(templates))
	for name, keys := range templates {
		cp := make([]Key, len(keys))
		copy(cp, keys)
		out[name] = cp
	}

	return out
}

// TemplateNames returns the template names sorted alphabetically.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Template returns the grants of the named template.
func Template(name string) (Grants, bool) {
	keys, ok := templates[name]
	if !ok {
		return nil, false
	}

	g := make(Grants, len(keys))
	for _, k := range keys {
		g[k] = true
	}

	return g, true
}

// Modules returns the distinct module names in catalog order.
func Modules() []string {
	var (
		seen = make(map[string]struct{})
		out  []string
	)

	for _, k := range registry {
		if _, ok := seen[k.Module()]; ok {
			continue
		}

		seen[k.Module()] = struct{}{}
		out = append(out, k.Module())
	}

	return out
}

// VerifyRegistry checks the catalog and the templates for consistency.
// It is meant to run once at startup; a failure is a programming error.
func VerifyRegistry() error {
	return verify(registry, templates)
}

func verify(keys []Key, tmpl map[string][]Key) error {
	set := make(map[Key]struct{}, len(keys))

	for _, k := range keys {
		if !keyPattern.MatchString(string(k)) {
			return fmt.Errorf("permission key %q does not match module.action format", k)
		}

		if _, dup := set[k]; dup {
			return fmt.Errorf("permission key %q is registered twice", k)
		}

		set[k] = struct{}{}
	}

	for name, tkeys := range tmpl {
		for _, k := range tkeys {
			if _, ok := set[k]; !ok {
				return fmt.Errorf("template %q references unregistered key %q", name, k)
			}
		}
	}

	return nil
}

func keysWithAction(action string) []Key {
	var out []Key

	for _, k := range registry {
		if k.Action() == action {
			out = append(out, k)
		}
	}

	return out
}
