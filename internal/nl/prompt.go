package nl

import (
	"fmt"
	"strings"

	"github.com/yash-patil1/Cdac-Project/internal/domain"
)

func classifyPrompt(body string) string {
	return fmt.Sprintf(`You are an assistant classifying customer replies regarding a Partial Order Proposal.

The customer was asked: "We have partial stock. Should we ship available items?"

Classify the following reply into exactly one of these categories:
- APPROVE (Customer wants us to ship available items, e.g., "Yes", "Go ahead", "Ship it", "Okay", "Proceed")
- REJECT (Customer does NOT want partial shipment, e.g., "No", "Cancel", "Wait for full stock", "Don't ship")
- OTHER (Unclear, asking for more info, or unrelated)

REPLY: %q

OUTPUT ONLY THE CATEGORY NAME (APPROVE, REJECT, or OTHER). Do not add any explanation.`, body)
}

func bodyPrompt(f Facts) string {
	var context string
	switch f.Kind {
	case domain.KindOutOfStock:
		context = "- All requested items are out of stock.\n- We will notify them when available.\n- Apologize for the stockout."
	case domain.KindProposal:
		context = fmt.Sprintf(
			"- We only have partial stock available.\n- Available items:\n%s\n- Ask if they want us to ship these available items immediately while waiting for the rest.",
			itemList(f.Items),
		)
	case domain.KindPartialConfirmed:
		context = fmt.Sprintf(
			"- The customer approved a partial shipment.\n- Thank them and confirm shipment of:\n%s\n- Mention the attached invoice covers the shipped items only.",
			itemList(f.Items),
		)
	default:
		context = "- The full order has been fulfilled.\n- Mention the attached invoice."
	}

	return fmt.Sprintf(`Act as the supplier (%s). Write an email body to the buyer (%s) regarding Purchase Order %s.

Context:
%s

Instructions:
1. Start directly with "Dear %s,"
2. Do NOT include a Subject line.
3. Do NOT include a closing or signature. I will add it automatically.
4. Keep it professional and concise.`, f.Supplier, f.Buyer, f.PONumber, context, f.Buyer)
}

func itemList(items []ItemFact) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("- %s: %d units", it.Name, it.Quantity))
	}
	return strings.Join(lines, "\n")
}

// FallbackBody is the static template used when the model endpoint is
// unavailable or returns garbage. It exposes only the named facts.
func FallbackBody(f Facts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", f.Buyer)
	switch f.Kind {
	case domain.KindFulfilled:
		fmt.Fprintf(&b, "Please find attached the invoice for purchase order %s. All requested items are in stock and will be shipped shortly.\n\nThank you for your business.", f.PONumber)
	case domain.KindOutOfStock:
		fmt.Fprintf(&b, "We are sorry to inform you that all items on purchase order %s are currently out of stock. We will notify you as soon as stock becomes available.", f.PONumber)
	case domain.KindProposal:
		fmt.Fprintf(&b, "Regarding purchase order %s, we currently have partial stock available:\n\n%s\n\nWould you like us to ship the available items immediately while the remainder is restocked? Please reply to confirm or decline.", f.PONumber, itemList(f.Items))
	case domain.KindPartialConfirmed:
		fmt.Fprintf(&b, "Thank you for confirming the partial shipment for purchase order %s. The following items are being shipped:\n\n%s\n\nThe attached invoice covers the shipped items only.", f.PONumber, itemList(f.Items))
	default:
		fmt.Fprintf(&b, "Please find attached the latest update for purchase order %s.", f.PONumber)
	}
	return b.String()
}
