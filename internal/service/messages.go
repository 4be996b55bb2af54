package service

import (
	"fmt"
	"strings"

	"github.com/set-night/firelinx/internal/config"
	"github.com/set-night/firelinx/internal/domain"
)

var (
	classificationButtons = []string{"A", "B", "C", "D"}
	severityButtons       = []string{"1", "2", "3", "4"}
)

func WelcomePrompt() domain.Prompt {
	return domain.Prompt{
		Text: "👋 *Welcome to FireLinx!*\n\nSend a Google Maps location link, a photo with a GPS overlay, or use the format:\n" +
			"`" + config.FireCommandExample + "`",
		Markdown: true,
	}
}

func HelpPrompt() domain.Prompt {
	var b strings.Builder
	b.WriteString("📘 *Help Guide*\n\n")
	b.WriteString("• To report fire:\n  1. Send Google Maps link OR\n  2. Send a photo with a GPS overlay OR\n")
	b.WriteString("  3. Use `/fire <type> <intensity> <lat> <lng>`\n")
	b.WriteString("• I'll guide you from there.\n")
	b.WriteString("• /cancel drops a report in progress, /sos raises an emergency SMS and email.\n\n")
	b.WriteString("Fire Types:\n")
	for _, c := range domain.Classifications {
		fmt.Fprintf(&b, "`%s` - %s\n", c, c.Description())
	}
	b.WriteString("Intensity: `1` (low) to `4` (severe)")
	return domain.Prompt{Text: b.String(), Markdown: true}
}

func locatedPrompt() domain.Prompt {
	return domain.Prompt{Text: "📍 Location received!\nChoose fire type:", Buttons: classificationButtons}
}

func severityPrompt() domain.Prompt {
	return domain.Prompt{Text: "🔥 Now choose fire intensity:", Buttons: severityButtons}
}

func formatErrorPrompt() domain.Prompt {
	return domain.Prompt{Text: "❌ Invalid format. Use `" + config.FireCommandExample + "`", Markdown: true}
}

func linkErrorPrompt(transient bool) domain.Prompt {
	if transient {
		return domain.Prompt{Text: "⚠️ Could not open the link right now. Please try again."}
	}
	return domain.Prompt{Text: "❌ Could not extract location from link."}
}

func imageErrorPrompt(transient bool) domain.Prompt {
	if transient {
		return domain.Prompt{Text: "⚠️ Could not process the photo right now. Please try again."}
	}
	return domain.Prompt{Text: "❌ Could not read coordinates from the photo. Send a photo with a visible GPS overlay or a Google Maps link."}
}

func ocrDisabledPrompt() domain.Prompt {
	return domain.Prompt{Text: "📷 Photo recognition is not available. Send a Google Maps link or use `" + config.FireCommandExample + "`", Markdown: true}
}

// guidancePrompt keeps the quick replies of the current stage on screen.
func guidancePrompt(cur *domain.Session) domain.Prompt {
	p := domain.Prompt{
		Text:     "🤖 Please send a valid Google Maps link or use `" + config.FireCommandExample + "`",
		Markdown: true,
	}
	if cur == nil {
		return p
	}
	switch cur.Stage {
	case domain.StageAwaitingClassification:
		p.Buttons = classificationButtons
	case domain.StageAwaitingSeverity:
		p.Buttons = severityButtons
	}
	return p
}

func publishedPrompt(r domain.FireReport, out domain.PublishOutcome) domain.Prompt {
	if !out.Delivered {
		return domain.Prompt{Text: "❌ Failed to send alert: " + out.Reason}
	}
	return domain.Prompt{
		Text: fmt.Sprintf("✅ *Fire alert sent!*\n%s\n🔥 *Intensity*: %s\n📍 *Location*: %s",
			r.Classification.Description(), r.Severity, r.Coordinate),
		Markdown: true,
	}
}

func cancelPrompt(had bool) domain.Prompt {
	if had {
		return domain.Prompt{Text: "🗑 Report discarded. Send a new location whenever you are ready."}
	}
	return domain.Prompt{Text: "Nothing to cancel."}
}
