package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cubanhacks/ticket-bot/internal/catalog"
	"github.com/cubanhacks/ticket-bot/internal/domain"
)

const ticketSeparator = "══════════════════════════════"

// proofImageURL finds an image URL embedded in the proof text under one of
// the labels the storefront uses.
var proofImageURL = regexp.MustCompile(`(?i)(?:Foto de PAgo|Comprobante|Image|URL):\s*(https?://[^\s]+\.(?:jpg|jpeg|png|gif|webp)(?:\?[^\s]*)?)`)

// extractProofImage returns the image URL for a submission and the proof
// text with the URL line stripped out.
func extractProofImage(photoURL, proof string) (string, string) {
	if photoURL != "" {
		return photoURL, proof
	}
	m := proofImageURL.FindStringSubmatch(proof)
	if m == nil {
		return "", proof
	}
	cleaned := proofImageURL.ReplaceAllString(proof, "")
	cleaned = regexp.MustCompile(`\n\s*\n`).ReplaceAllString(cleaned, "\n")
	return strings.TrimSpace(m[1]), strings.TrimSpace(cleaned)
}

// buildTicketMessage renders the ticket announcement posted to the country
// channel for administrators to approve or reject.
func buildTicketMessage(t domain.Ticket, hasImage bool) string {
	var b strings.Builder
	hour := t.CreatedAt.Format("15:04")

	fmt.Fprintf(&b, "🎫 *TICKET #%d* | %s\n%s\n\n", t.ID, hour, ticketSeparator)
	fmt.Fprintf(&b, "📱 *Cliente:* %s\n", t.Phone)
	fmt.Fprintf(&b, "📦 *Producto:* %s", t.Product)

	if t.Proof != "" && !hasImage {
		fmt.Fprintf(&b, "\n🧾 *Comprobante:* %s", t.Proof)
	} else if t.Proof != "" {
		fmt.Fprintf(&b, "\n🧾 *Referencia:* %s", t.Proof)
	}

	if catalog.Category(t.Product) == domain.CategorySocio {
		if t.PartnerUser != "" {
			fmt.Fprintf(&b, "\n👤 *Usuario a recargar:* %s", t.PartnerUser)
			amount := t.Duration
			if amount == "" {
				amount = "No especificado"
			}
			fmt.Fprintf(&b, "\n💰 *Monto a recargar:* $%s", amount)
		} else {
			b.WriteString("\n⚠️ *ATENCIÓN:* Falta usuario socio para recarga")
		}
	}

	if t.Duration != "" {
		fmt.Fprintf(&b, "\n⏱️ *Duración:* %s", t.Duration)
	}

	fmt.Fprintf(&b, "\n\n🌍 *País:* %s\n%s\n\n", t.Country, ticketSeparator)
	b.WriteString("⚡ *RESPONDER A ESTE MENSAJE:*\n")
	fmt.Fprintf(&b, "✅ *APROBAR TICKET #%d*\n", t.ID)
	fmt.Fprintf(&b, "❌ *RECHAZAR TICKET #%d*\n\n", t.ID)
	fmt.Fprintf(&b, "🔔 *Ticket #%d* • %s", t.ID, hour)

	if hasImage {
		b.WriteString("\n\n📸 *Comprobante de pago adjunto*")
	}
	return b.String()
}

// buildDeliveryMessage renders the license delivery sent to the buyer after
// approval.
func buildDeliveryMessage(productName, license string, agent *domain.Agent, clientGroupLink string) string {
	alias := catalog.TutorialAlias(productName)
	tutorialURL := catalog.TutorialURL(alias)

	var b strings.Builder
	b.WriteString("🎉 *PAGO APROBADO* 🎉\n\n")
	b.WriteString("✅ Tu pago ha sido verificado y aprobado\n")
	fmt.Fprintf(&b, "📦 Producto: %s\n", productName)
	fmt.Fprintf(&b, "🔑 Licencia: `%s`\n\n", license)
	b.WriteString("📚 *TUTORIAL DE INSTALACIÓN:*")

	if catalog.HasFullTutorial(alias) {
		fmt.Fprintf(&b, "\n🎯 Tutorial completo disponible en:\n🔗 %s", tutorialURL)
	} else {
		b.WriteString("\n🎯 *Pasos básicos:*\n")
		b.WriteString("1. Descarga el archivo enviado\n")
		b.WriteString("2. Sigue las instrucciones de instalación\n")
		b.WriteString("3. Ingresa tu licencia cuando te la pida\n\n")
		fmt.Fprintf(&b, "🔗 Tutorial completo: %s", tutorialURL)
	}

	if agent != nil {
		b.WriteString("\n\n👤 *TU VENDEDOR ASIGNADO:*\n")
		fmt.Fprintf(&b, "📱 %s: %s\n", agent.Name, agent.Phone)
		b.WriteString("💬 Contacta a tu vendedor para cualquier duda")
	}

	fmt.Fprintf(&b, "\n\n💬 *Grupo de Clientes:* \n%s\n\n", clientGroupLink)
	b.WriteString("🌐 *Entregado desde Cuban Hacks Database*\n")
	b.WriteString("¡Gracias por tu compra! 🚀")
	return b.String()
}

// buildAgentNotification renders the sale notice sent to the assigned agent.
func buildAgentNotification(agent domain.Agent, client, product, license, amount string) string {
	var b strings.Builder
	b.WriteString("🎯 *NUEVA VENTA ASIGNADA* 🎯\n\n")
	fmt.Fprintf(&b, "👤 *Vendedor:* %s\n", agent.Name)
	fmt.Fprintf(&b, "📱 *Cliente:* %s\n", client)
	fmt.Fprintf(&b, "📦 *Producto:* %s\n", product)
	fmt.Fprintf(&b, "🔑 *Licencia:* `%s`\n", license)
	if amount != "" {
		fmt.Fprintf(&b, "💰 *Monto:* $%s\n", amount)
	}
	b.WriteString("\n✅ *Venta procesada y entregada automáticamente*\n")
	b.WriteString("📋 Cliente ya recibió su producto y tutorial\n")
	b.WriteString("🚀 ¡Felicidades por la venta!\n\n")
	b.WriteString("🌐 *Sistema Cuban Hacks*")
	return b.String()
}

// buildRechargeSuccess renders the socio recharge confirmation.
func buildRechargeSuccess(ticketID int, username string, amount, newBalance float64) string {
	return fmt.Sprintf(`✅ *RECARGA SOCIO COMPLETADA*

Tu recarga ha sido procesada exitosamente:

👤 *Usuario:* %s
💰 *Monto recargado:* $%.2f
💳 *Nuevo saldo:* $%.2f
🎫 *Ticket:* #%d

¡Tu saldo ha sido actualizado! 🚀

🌐 *Sistema Cuban Hacks*`, username, amount, newBalance, ticketID)
}

// buildRechargeError renders a socio recharge failure notice. The body
// varies with the failure class so the buyer knows whether to retry.
func buildRechargeError(ticketID int, username, reason, supportLink string) string {
	header := "❌ *ERROR EN RECARGA SOCIO*\n\n"
	switch reason {
	case "auth":
		return header + fmt.Sprintf("Error de configuración del sistema. Contacta al administrador.\n🎫 *Ticket:* #%d", ticketID)
	case "user_not_found":
		return header + fmt.Sprintf("El usuario \"%s\" no existe en el sistema.\nVerifica que el username sea correcto.\n🎫 *Ticket:* #%d", username, ticketID)
	case "amount":
		return header + fmt.Sprintf("El monto de la recarga no es válido.\n🎫 *Ticket:* #%d", ticketID)
	case "missing_user":
		return header + fmt.Sprintf("Lo sentimos, hubo un problema con tu recarga de socio. Contacta al soporte para resolverlo.\n\n🎫 *Ticket:* #%d", ticketID)
	default:
		return header + fmt.Sprintf("Hubo un problema técnico con tu recarga.\nContacta al soporte con el número de ticket.\n🎫 *Ticket:* #%d\n\n📧 Soporte: %s", ticketID, supportLink)
	}
}

// buildDiamondsNotice renders the handoff posted to the diamonds channel.
func buildDiamondsNotice(t domain.Ticket) string {
	id := t.ExternalID
	if id == "" {
		id = "No proporcionado"
	}
	qty := t.Duration
	if qty == "" {
		qty = "No proporcionado"
	}
	return fmt.Sprintf(`💎 *ENTREGA DIAMANTES*

📱 *Teléfono:* %s
🆔 *ID Diamantes:* %s
💰 *Cantidad:* %s
🎫 *Ticket:* #%d`, t.WAID, id, qty, t.ID)
}

// buildManualValidation renders the notice for products delivered by hand.
func buildManualValidation(t domain.Ticket) string {
	return fmt.Sprintf(`✅ *PAGO VALIDADO*

Tu pago ha sido validado correctamente. Uno de nuestros vendedores se pondrá en contacto contigo para tu entrega.

📦 *Producto:* %s
🎫 *Ticket:* #%d

¡Gracias por tu compra! 🚀`, t.Product, t.ID)
}

// buildDeliveryError renders an automatic delivery failure notice. The
// wording depends on what the backend reported.
func buildDeliveryError(t domain.Ticket, backendMessage, supportLink string) string {
	header := "❌ *ERROR EN ENTREGA AUTOMÁTICA*\n\n"
	switch {
	case strings.Contains(backendMessage, "API key") || strings.Contains(backendMessage, "autenticación"):
		return header + fmt.Sprintf("Error de configuración del sistema.\nUn administrador ha sido notificado.\n🎫 *Ticket:* #%d", t.ID)
	case strings.Contains(backendMessage, "no está configurado"):
		return header + fmt.Sprintf("El producto \"%s\" no está disponible para entrega automática.\nUn vendedor se pondrá en contacto contigo.\n🎫 *Ticket:* #%d", t.Product, t.ID)
	case strings.Contains(backendMessage, "No hay licencias disponibles"):
		return header + fmt.Sprintf("Producto temporalmente sin stock.\nUn vendedor te contactará con una alternativa.\n🎫 *Ticket:* #%d", t.ID)
	default:
		return header + fmt.Sprintf("Hubo un problema técnico con la entrega automática.\nUn vendedor se pondrá en contacto contigo pronto.\n🎫 *Ticket:* #%d\n\n📧 Soporte: %s", t.ID, supportLink)
	}
}

// buildRejectionWarning renders the warning sent to a buyer whose proof was
// rejected.
func buildRejectionWarning(t domain.Ticket) string {
	country := t.Country
	if country == "" {
		country = "tu país"
	}
	proof := t.Proof
	if proof == "" {
		proof = "No se proporcionó comprobante"
	}
	return fmt.Sprintf(`❌ *PAGO RECHAZADO* ❌

🚫 Tu pago de %s es falso.

⚠️ *ADVERTENCIA:*
📋 Envía un pago REAL o serás bloqueado la siguiente vez.
🔒 Próximo pago falso = BLOQUEO PERMANENTE

💰 Realiza un pago válido para obtener tu producto.
📱 Contacta a tu vendedor si tienes dudas.

🧾 *TU COMPROBANTE FALSO:*
%s

❌ *ESTE COMPROBANTE ES FALSO* ❌`, country, proof)
}

// buildDecisionConfirmation renders the short channel confirmation after a
// decision is applied.
func buildDecisionConfirmation(ticketID int, verdict domain.Decision, actor string) string {
	if verdict == domain.DecisionApproved {
		return fmt.Sprintf("✅ *TICKET #%d APROBADO*\n👤 Administrador: %s\n📱 Cliente notificado y producto entregado", ticketID, actor)
	}
	return fmt.Sprintf("❌ *TICKET #%d RECHAZADO*\n👤 Administrador: %s\n📱 Cliente notificado", ticketID, actor)
}
