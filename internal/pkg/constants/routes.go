package constants

// Static route constants
const (
	// PublicPageRoute prefixes public bio pages, e.g. /p/minha-loja
	PublicPageRoute = "/p"
	// LinkRedirectRoute prefixes click-tracked short links, e.g. /l/21
	LinkRedirectRoute = "/l"
)
