package market

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bnema/lumiere-ledger/internal/application"
	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// valueBarCeiling is the value score drawn as a full bar.
const valueBarCeiling = 5.0

type RenderOptions struct {
	Now time.Time
}

func renderMarketplace(view application.MarketplaceView, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Lumiere Marketplace"),
		s.header.Render(fmt.Sprintf("network: %s  tenant: %s  listed: %d", view.Network, view.Tenant, len(view.Listed))),
	}

	if len(view.Listed) == 0 {
		lines = append(lines, s.empty.Render("No resources listed for sale."))
	}

	for _, listed := range view.Listed {
		lines = append(lines, s.section.Render(renderListed(listed, s)))
	}

	lines = append(lines, s.section.Render(renderEvents(view.RecentEvents, opts, s)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderListed(listed application.ListedToken, s styles) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		s.token.Render(tokenTitle(listed.DisplayName, listed.ResourceKey)),
		s.detail.Render(fmt.Sprintf("owner: %s  price: %s", listed.Owner, formatPrice(listed.Price))),
		valueLine(listed.ValueScore, s),
	)
}

func renderState(view application.StateView, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Lumiere Ledger State"),
		s.header.Render(fmt.Sprintf(
			"tokens: %d  rentals: %d  pending reviews: %d  ledger: %d",
			len(view.Tokens), len(view.Rentals), len(view.PendingReviews), len(view.Ledger),
		)),
	}

	if view.LedgerDropped > 0 {
		lines = append(lines, s.warning.Render(fmt.Sprintf("ledger truncated: %d entries dropped", view.LedgerDropped)))
	}

	if len(view.Tokens) == 0 {
		lines = append(lines, s.empty.Render("No tokens minted."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	keys := make([]string, 0, len(view.Tokens))
	for key := range view.Tokens {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		token := view.Tokens[key]
		parts := []string{
			s.token.Render(tokenTitle(token.DisplayName, key)),
			s.detail.Render(fmt.Sprintf("owner: %s  tenant: %s  trained: %d  used: %d", ownerLabel(token.Owner), tenantLabel(token.TenantID), token.TrainScore, token.UsageCount)),
			valueLine(token.ValueScore, s),
		}
		if token.Listed {
			parts = append(parts, s.detail.Render("listed at "+formatPrice(token.ListPrice)))
		}
		if rental, ok := view.Rentals[key]; ok {
			parts = append(parts, rentalLine(rental, opts, s))
		}
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderChain(report application.ChainReport, s styles) string {
	status := s.ok.Render("chain intact")
	if !report.OK {
		status = s.warning.Render("chain corrupted")
	}

	lines := []string{
		s.title.Render("Ledger Verification"),
		status,
		s.detail.Render(fmt.Sprintf("entries: %d", report.Entries)),
	}
	if report.Truncated {
		lines = append(lines, s.header.Render("older entries were dropped; the first kept link is trusted"))
	}
	if report.Error != "" {
		lines = append(lines, s.warning.Render(report.Error))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderEvents(events []domain.LedgerEntry, opts RenderOptions, s styles) string {
	lines := []string{s.header.Render(fmt.Sprintf("recent events: %d", len(events)))}
	if len(events) == 0 {
		lines = append(lines, s.empty.Render("No ledger activity yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, event := range events {
		ageStyle := lipgloss.NewStyle().Foreground(eventAgeColor(event.Timestamp, opts.Now))
		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Top,
			ageStyle.Render(formatEventTime(event.Timestamp, opts.Now)),
			" ",
			s.eventKey.Render(fmt.Sprintf("%-16s", event.EventType)),
			" ",
			s.eventMeta.Render(event.Specialty),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func rentalLine(rental domain.Rental, opts RenderOptions, s styles) string {
	if !opts.Now.IsZero() && rental.Expired(opts.Now) {
		return s.empty.Render(fmt.Sprintf("rental by %s lapsed", rental.Renter))
	}
	return s.warning.Render(fmt.Sprintf("rented by %s (%s)", rental.Renter, formatExpiry(rental.ExpiresAt, opts.Now)))
}

func valueLine(score float64, s styles) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.eventKey.Render("value:"),
		" ",
		renderValueBar(score, 20, s),
		" ",
		s.detail.Render(fmt.Sprintf("%.3f", score)),
	)
}

func renderValueBar(score float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	fraction := clamp(score/valueBarCeiling, 0, 1)
	filled := int(math.Round(float64(width) * fraction))
	empty := width - filled

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", empty)),
		s.barBracket.Render("]"),
	)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func tokenTitle(displayName, key string) string {
	trimmed := strings.TrimSpace(displayName)
	if trimmed == "" {
		return key
	}
	return fmt.Sprintf("%s (%s)", trimmed, key)
}

func ownerLabel(owner string) string {
	if domain.IsUnclaimedOwner(owner) {
		return "unclaimed"
	}
	return owner
}

func tenantLabel(tenant domain.TenantID) string {
	if strings.TrimSpace(string(tenant)) == "" {
		return "unset"
	}
	return string(tenant)
}

func formatPrice(price *float64) string {
	if price == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *price)
}

func formatExpiry(expiresAt, now time.Time) string {
	if now.IsZero() {
		return "until " + expiresAt.Format(time.RFC3339)
	}

	remaining := expiresAt.Sub(now)
	if remaining < 24*time.Hour {
		hours := int(math.Ceil(remaining.Hours()))
		if hours < 1 {
			hours = 1
		}
		suffix := "hours"
		if hours == 1 {
			suffix = "hour"
		}
		return fmt.Sprintf("expires in %d %s (%s)", hours, suffix, expiresAt.Format("15:04"))
	}

	days := int(math.Ceil(remaining.Hours() / 24))
	suffix := "days"
	if days == 1 {
		suffix = "day"
	}
	return fmt.Sprintf("expires in %d %s (%s)", days, suffix, expiresAt.Format("15:04 on 02 Jan"))
}

func formatEventTime(ts, now time.Time) string {
	if !now.IsZero() {
		yearA, monthA, dayA := now.Date()
		yearB, monthB, dayB := ts.Date()
		if yearA == yearB && monthA == monthB && dayA == dayB {
			return ts.Format("15:04")
		}
	}
	return ts.Format("02 Jan 15:04")
}

// eventAgeColor fades events older than a day toward grey.
func eventAgeColor(ts, now time.Time) lipgloss.Color {
	if now.IsZero() || ts.After(now) {
		return lipgloss.Color("255")
	}

	window := 24 * time.Hour
	fresh := window.Seconds() - now.Sub(ts).Seconds()
	return interpolateColor(fresh, 0, window.Seconds())
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := clamp((value-min)/(max-min), 0, 1)

	// ANSI 256 greyscale: 240 faded, 255 bright.
	baseColor := 240.0
	targetColor := 255.0
	colorCode := int(baseColor + (targetColor-baseColor)*normalized)

	return lipgloss.Color(fmt.Sprintf("%d", colorCode))
}
