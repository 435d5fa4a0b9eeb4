package config

// SMTPRelayAddr is host:port of the outgoing relay. Empty disables welcome mail.
func SMTPRelayAddr() string {
	return GetEnv("SMTP_RELAY_ADDR", "")
}

func SMTPUsername() string {
	return GetEnv("SMTP_USERNAME", "")
}

func SMTPPassword() string {
	return GetEnv("SMTP_PASSWORD", "")
}

func SMTPFrom() string {
	return GetEnv("SMTP_FROM", "no-reply@prepwise.local")
}

// DKIMDomain, DKIMSelector and DKIMKeyFile enable DKIM signing when all are set.
func DKIMDomain() string {
	return GetEnv("DKIM_DOMAIN", "")
}

func DKIMSelector() string {
	return GetEnv("DKIM_SELECTOR", "default")
}

func DKIMKeyFile() string {
	return GetEnv("DKIM_KEY_FILE", "")
}

// SMTPTLS is "starttls" (default), "implicit" or "none".
func SMTPTLS() string {
	return GetEnv("SMTP_TLS", "starttls")
}

// SMTPRequireSPF makes startup fail when the sender domain's SPF policy does not cover the relay.
func SMTPRequireSPF() bool {
	return GetEnv("SMTP_REQUIRE_SPF", "false") == "true"
}
