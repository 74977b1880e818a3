package auth

// PageOutcome is the result of a page authorization.
type PageOutcome int

const (
	// PageAllow lets the request through.
	PageAllow PageOutcome = iota
	// PageRedirectLogin sends an unauthenticated request to the login page.
	PageRedirectLogin
	// PageRedirectUnauthorized sends an authenticated but forbidden request to the unauthorized page.
	PageRedirectUnauthorized
)

func (o PageOutcome) String() string {
	switch o {
	case PageAllow:
		return "allow"
	case PageRedirectLogin:
		return "redirect_login"
	case PageRedirectUnauthorized:
		return "redirect_unauthorized"
	default:
		return "unknown"
	}
}

// AuthorizePage decides a page request. It only looks at the claim in hand.
func AuthorizePage(claim *Claim, required Key) PageOutcome {
	switch {
	case claim == nil:
		return PageRedirectLogin
	case !claim.Has(required):
		return PageRedirectUnauthorized
	default:
		return PageAllow
	}
}

// AuthorizeAPI decides an API request. On success the claim is passed through;
// otherwise ErrNoSession (401) or ErrInsufficientPermission (403) is returned.
func AuthorizeAPI(claim *Claim, required Key) (*Claim, error) {
	switch {
	case claim == nil:
		return nil, ErrNoSession
	case !claim.Has(required):
		return nil, ErrInsufficientPermission
	default:
		return claim, nil
	}
}
