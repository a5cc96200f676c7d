package dismiss

func button(text string) Rule { return Rule{CSS: "button", Text: text} }
func link(text string) Rule { return Rule{CSS: "a", Text: text} }
func css(selector string) Rule { return Rule{CSS: selector} }

// DefaultRules is the ordered rule table tried against every page. Earlier
// rules take precedence.
var DefaultRules = []Rule{
	// Spanish
	button("Aceptar"),
	button("Aceptar todo"),
	button("Aceptar todas"),
	button("Aceptar cookies"),
	button("Acepto"),
	button("Entendido"),
	button("De acuerdo"),
	button("Cerrar"),
	link("Aceptar"),
	link("Aceptar todo"),
	link("Cerrar"),

	// English
	button("Accept"),
	button("Accept all"),
	button("Accept All"),
	button("Accept cookies"),
	button("Accept Cookies"),
	button("I accept"),
	button("I Accept"),
	button("Got it"),
	button("OK"),
	button("Close"),
	button("Agree"),
	button("I agree"),
	button("Continue"),
	button("Consent"),
	link("Accept"),
	link("Accept all"),
	link("Close"),

	// French
	button("Accepter"),
	button("Tout accepter"),
	button("J'accepte"),
	button("Fermer"),
	button("D'accord"),

	// German
	button("Akzeptieren"),
	button("Alle akzeptieren"),
	button("Ich akzeptiere"),
	button("Schließen"),
	button("Einverstanden"),

	// Italian
	button("Accetta"),
	button("Accetta tutto"),
	button("Accetto"),
	button("Chiudi"),
	button("Ho capito"),

	// Portuguese
	button("Aceitar"),
	button("Aceitar tudo"),
	button("Eu aceito"),
	button("Fechar"),
	button("Entendi"),

	// Class substring pairs
	css(`[class*="cookie" i][class*="accept" i]`),
	css(`[class*="cookie" i][class*="consent" i]`),
	css(`[class*="cookie" i][class*="agree" i]`),
	css(`[class*="cookie" i][class*="allow" i]`),
	css(`[class*="consent" i][class*="accept" i]`),
	css(`[class*="consent" i][class*="agree" i]`),
	css(`[class*="gdpr" i][class*="accept" i]`),
	css(`[class*="privacy" i][class*="accept" i]`),
	css(`[class*="banner" i][class*="accept" i]`),
	css(`[class*="modal" i][class*="accept" i]`),
	css(`[class*="popup" i][class*="accept" i]`),
	css(`[class*="notice" i][class*="accept" i]`),

	// Well-known class and id names
	css(".cookie-consent-accept"),
	css(".cookie-accept"),
	css(".cookie-accept-all"),
	css(".accept-cookies"),
	css(".accept-all-cookies"),
	css(".consent-accept"),
	css(".gdpr-accept"),
	css(".privacy-accept"),
	css("#cookie-accept"),
	css("#accept-cookies"),
	css("#cookieConsent button"),
	css("#cookieNotice button"),
	css(".cc-accept"),
	css(".cc-allow"),
	css(".cc-dismiss"),

	// Id substring pairs
	css(`[id*="cookie" i][id*="accept" i]`),
	css(`[id*="cookie" i][id*="consent" i]`),
	css(`[id*="gdpr" i][id*="accept" i]`),
	css(`[id*="consent" i][id*="accept" i]`),

	// OneTrust
	css("#onetrust-accept-btn-handler"),
	css(".onetrust-close-btn-handler"),
	css(".optanon-allow-all-button"),

	// Cookiebot
	css("#CybotCookiebotDialogBodyLevelButtonLevelOptinAllowAll"),
	css("#CybotCookiebotDialogBodyButtonAccept"),
	css(".CybotCookiebotDialogBodyButton"),

	// Cookie Consent
	css(".cc-btn.cc-allow"),
	css(".cc-compliance button"),

	// Quantcast
	css(`.qc-cmp2-summary-buttons button[mode="primary"]`),
	css(`button[aria-label*="Accept" i]`),
	css(`button[aria-label*="Consent" i]`),

	// TrustArc
	css("#truste-consent-button"),
	css(".truste-button1"),

	// Osano
	css(".osano-cm-accept"),
	css(".osano-cm-accept-all"),

	// Google consent mode
	css(`button[data-google-interstitial-action="accept"]`),

	// ARIA labels
	css(`button[aria-label*="accept" i]`),
	css(`button[aria-label*="consent" i]`),
	css(`button[aria-label*="agree" i]`),
	css(`button[aria-label*="close" i]`),
	css(`button[aria-label*="dismiss" i]`),

	// Close buttons
	css(`button[class*="close" i]`),
	css(`button[aria-label="Close"]`),
	css(`button[aria-label="Cerrar"]`),
	css(`[class*="close-button" i]`),
	css(`[class*="dismiss" i]`),

	// Generic dialogs
	css(".modal-footer button:first-child"),
	css(".modal-actions button:first-child"),
	css(`div[role="dialog"] button:first-child`),
	css(`div[role="alertdialog"] button:first-child`),
}
