package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/estima/internal/domain"
)

// defaultModules is the starter catalog for a fresh store.
var defaultModules = []domain.Module{
	{Code: "core", Name: "Core", Description: "Project skeleton, layout, navigation, shared components and base setup", HoursFrontend: 6, HoursBackend: 10, HoursQA: 3},
	{Code: "auth", Name: "Authentication", Description: "Sign up, login, password recovery, sessions, roles and permissions", HoursFrontend: 8, HoursBackend: 10, HoursQA: 3},
	{Code: "profile", Name: "User profile", Description: "Profile page, account settings, avatar and personal data", HoursFrontend: 6, HoursBackend: 8, HoursQA: 2},
	{Code: "catalog", Name: "Catalog", Description: "Product or content catalog with categories, filters and item cards", HoursFrontend: 12, HoursBackend: 14, HoursQA: 4},
	{Code: "search", Name: "Search", Description: "Full text search, suggestions, sorting and result pages", HoursFrontend: 8, HoursBackend: 12, HoursQA: 3},
	{Code: "geo", Name: "Geolocation and maps", Description: "Maps, addresses, geolocation, delivery zones and nearby places", HoursFrontend: 10, HoursBackend: 14, HoursQA: 4},
	{Code: "cart", Name: "Cart", Description: "Shopping cart, quantities, promo codes and checkout start", HoursFrontend: 8, HoursBackend: 10, HoursQA: 3},
	{Code: "orders", Name: "Orders", Description: "Checkout, order history, statuses and order management", HoursFrontend: 10, HoursBackend: 14, HoursQA: 4},
	{Code: "payments", Name: "Payments", Description: "Online payment, payment gateway, refunds and receipts", HoursFrontend: 6, HoursBackend: 12, HoursQA: 3},
	{Code: "notifications", Name: "Notifications", Description: "Email, SMS and push notifications with templates", HoursFrontend: 6, HoursBackend: 8, HoursQA: 2},
	{Code: "chat", Name: "Chat", Description: "Real time chat, messages, support conversations and attachments", HoursFrontend: 8, HoursBackend: 12, HoursQA: 3},
	{Code: "admin", Name: "Admin panel", Description: "Admin dashboard, content and user management, moderation", HoursFrontend: 14, HoursBackend: 16, HoursQA: 5},
	{Code: "analytics", Name: "Analytics", Description: "Reports, charts, statistics and event tracking", HoursFrontend: 8, HoursBackend: 10, HoursQA: 3},
	{Code: "integrations", Name: "Integrations", Description: "Third party API integrations, CRM, ERP and webhooks", HoursFrontend: 4, HoursBackend: 12, HoursQA: 3},
	{Code: "cms", Name: "CMS", Description: "Content management, pages, blog, news and media library", HoursFrontend: 8, HoursBackend: 10, HoursQA: 3},
}

// defaultRates are hourly rates at the middle level.
var defaultRates = []domain.Rate{
	{Role: "manager", Level: domain.LevelMiddle, HourlyRate: 4500},
	{Role: "architect", Level: domain.LevelMiddle, HourlyRate: 4000},
	{Role: "designer", Level: domain.LevelMiddle, HourlyRate: 3500},
	{Role: string(domain.RoleBackend), Level: domain.LevelMiddle, HourlyRate: 6000},
	{Role: string(domain.RoleFrontend), Level: domain.LevelMiddle, HourlyRate: 5000},
	{Role: string(domain.RoleQA), Level: domain.LevelMiddle, HourlyRate: 3000},
}

// SeedDefaults adds the starter modules and rates that are missing. Modules
// are matched by code and rates by role and level, so existing entries keep
// their values and repeated calls change nothing.
func (l *Local) SeedDefaults(ctx context.Context) error {
	return l.withinTx(ctx, func(ctx context.Context, tl *Local) error {
		for _, m := range defaultModules {
			_, err := tl.modules.GetByCode(ctx, m.Code)
			if err == nil {
				continue
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("seeding module %s: %w", m.Code, err)
			}
			if err := tl.modules.Create(ctx, &m); err != nil {
				return fmt.Errorf("seeding module %s: %w", m.Code, err)
			}
		}

		rates, err := tl.rates.List(ctx)
		if err != nil {
			return err
		}
		have := make(map[[2]string]bool, len(rates))
		for _, r := range rates {
			have[[2]string{r.Role, r.Level}] = true
		}
		for _, r := range defaultRates {
			if have[[2]string{r.Role, r.Level}] {
				continue
			}
			if err := tl.rates.Upsert(ctx, &r); err != nil {
				return fmt.Errorf("seeding rate %s/%s: %w", r.Role, r.Level, err)
			}
		}
		return nil
	})
}
