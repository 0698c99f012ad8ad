// Package browser automates the Google OAuth login flow with a real browser
// session driven over the Chrome DevTools Protocol.
//
// UI automation against a third party's login page is inherently flaky:
// failures are surfaced to the caller rather than silently retried, beyond a
// single bounded retry for transient page-load errors.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"ytautopub/config"
)

// Sentinel errors for the automation flow.
var (
	// ErrAutomationTimeout indicates no OAuth redirect occurred within the
	// configured bound.
	ErrAutomationTimeout = errors.New("browser: no redirect within wait bound")
	// ErrTwoFactorRequired indicates a two-factor challenge was shown but
	// could not be satisfied within the configured bound.
	ErrTwoFactorRequired = errors.New("browser: two-factor challenge not satisfied")
	// ErrCredentialsMissing indicates no account secrets are configured for
	// automated login.
	ErrCredentialsMissing = errors.New("browser: google email/password not configured")
)

// Page headings Google shows during the flow.
const (
	headingTwoFactor      = "2-Step Verification"
	headingAccountChooser = "Choose your account or a brand account"
)

const pollInterval = 2 * time.Second

// Automator drives a single browser session through the OAuth consent flow.
// One authorization flow at a time; the automator owns the whole browser
// lifetime for the duration of Authorize.
type Automator struct {
	cfg *config.Config
}

// New creates an automator using browser settings and account secrets from cfg.
func New(cfg *config.Config) *Automator {
	return &Automator{cfg: cfg}
}

// Authorize opens authURL in a browser, performs the login and consent flow,
// and returns the final redirect URL carrying the authorization code. The
// redirect URL is also written to cfg.AuthCodePath for file-based handoff.
func (a *Automator) Authorize(ctx context.Context, authURL string) (string, error) {
	if a.cfg.GoogleEmail == "" || a.cfg.GooglePassword == "" {
		return "", ErrCredentialsMissing
	}

	// Cached sessions can be expired or bound to the wrong account; clearing
	// cookies forces a clean email/password login every time.
	a.clearSessionCookies()

	opts := a.allocatorOptions()
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// One bounded retry for transient page-load errors.
	if err := navigate(browserCtx, authURL); err != nil {
		log.Printf("browser: initial navigation failed (%v), retrying once", err)
		if err := navigate(browserCtx, authURL); err != nil {
			return "", fmt.Errorf("browser: navigate to auth url: %w", err)
		}
	}

	heading, _ := pageHeading(browserCtx)
	log.Printf("browser: initial page heading %q", heading)

	if heading == headingAccountChooser {
		if err := a.chooseAccount(browserCtx); err != nil {
			return "", err
		}
	} else {
		if err := a.login(browserCtx); err != nil {
			return "", err
		}
		if err := a.waitTwoFactor(browserCtx); err != nil {
			return "", err
		}
	}

	redirect, err := a.clickThroughConsent(browserCtx)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(a.cfg.AuthCodePath, []byte(redirect), 0o600); err != nil {
		return "", fmt.Errorf("browser: write auth code file: %w", err)
	}
	log.Printf("browser: redirect captured, written to %s", a.cfg.AuthCodePath)
	return redirect, nil
}

// allocatorOptions builds the Chrome launch options from configuration.
func (a *Automator) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", a.cfg.HeadlessMode),
		chromedp.UserDataDir(a.cfg.BrowserProfilePath),
	)
	if a.cfg.BrowserExecutable != "" {
		opts = append(opts, chromedp.ExecPath(a.cfg.BrowserExecutable))
	}
	return opts
}

// clearSessionCookies removes the profile's cookie database if present.
func (a *Automator) clearSessionCookies() {
	cookiePath := filepath.Join(a.cfg.BrowserProfilePath, "Default", "Cookies")
	if err := os.Remove(cookiePath); err == nil {
		log.Printf("browser: cleared session cookies at %s", cookiePath)
	}
}

// navigate loads the URL and waits for the document body.
func navigate(ctx context.Context, url string) error {
	return chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// pageHeading returns the text of Google's #headingText element, if present.
func pageHeading(ctx context.Context) (string, error) {
	var heading string
	err := chromedp.Run(ctx,
		chromedp.Text("#headingText", &heading, chromedp.ByID, chromedp.AtLeast(0)),
	)
	return strings.TrimSpace(heading), err
}

// login fills the email and password forms on a fresh sign-in page.
func (a *Automator) login(ctx context.Context) error {
	log.Printf("browser: fresh login, entering email")
	err := chromedp.Run(ctx,
		chromedp.WaitVisible("#identifierId", chromedp.ByID),
		chromedp.SendKeys("#identifierId", a.cfg.GoogleEmail, chromedp.ByID),
		chromedp.Click("#identifierNext", chromedp.ByID),
		chromedp.WaitVisible(`input[type="password"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[type="password"]`, a.cfg.GooglePassword, chromedp.ByQuery),
		chromedp.Click("#passwordNext", chromedp.ByID),
	)
	if err != nil {
		return fmt.Errorf("browser: login form: %w", err)
	}
	return nil
}

// chooseAccount clicks the configured account in the account chooser shown
// for cached sessions. Falls back to the first listed account when no exact
// match is found.
func (a *Automator) chooseAccount(ctx context.Context) error {
	log.Printf("browser: account chooser shown, selecting %s", a.cfg.GoogleEmail)
	var clicked bool
	err := chromedp.Run(ctx,
		chromedp.Evaluate(chooserClickScript(a.cfg.GoogleEmail), &clicked),
	)
	if err != nil {
		return fmt.Errorf("browser: account chooser: %w", err)
	}
	if !clicked {
		return fmt.Errorf("browser: no account entry found in chooser")
	}
	chromedp.Run(ctx, chromedp.Sleep(pollInterval))
	return nil
}

// waitTwoFactor polls for the two-factor heading and waits for the user (or
// an external approver) to satisfy it within the configured bound. Absence
// of the heading means no challenge was issued.
func (a *Automator) waitTwoFactor(ctx context.Context) error {
	deadline := time.Now().Add(a.cfg.TwoFactorWait)
	seen := false

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}

		heading, _ := pageHeading(ctx)
		if heading != headingTwoFactor {
			if seen {
				log.Printf("browser: two-factor challenge completed")
			}
			return nil
		}

		if !seen {
			seen = true
			log.Printf("browser: waiting for two-factor completion (bound %s)", a.cfg.TwoFactorWait)
			// Keep the phone prompt, not the "don't ask again" persistence.
			chromedp.Run(ctx, chromedp.Evaluate(uncheckBoxesScript, nil))
		}

		chromedp.Run(ctx, chromedp.Sleep(pollInterval))
	}

	return ErrTwoFactorRequired
}

// clickThroughConsent drives the consent screens until the OAuth redirect is
// observed, bounded by RedirectWait.
func (a *Automator) clickThroughConsent(ctx context.Context) (string, error) {
	deadline := time.Now().Add(a.cfg.RedirectWait)

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		var location string
		if err := chromedp.Run(ctx, chromedp.Location(&location)); err == nil {
			if HasAuthCode(location) {
				return location, nil
			}
		}

		// Check consent checkboxes, then press any continue/confirm button.
		chromedp.Run(ctx,
			chromedp.Evaluate(checkConsentBoxesScript, nil),
			chromedp.Evaluate(continueClickScript, nil),
		)

		chromedp.Run(ctx, chromedp.Sleep(pollInterval))
	}

	return "", ErrAutomationTimeout
}

// HasAuthCode reports whether url is an OAuth redirect carrying an
// authorization code.
func HasAuthCode(url string) bool {
	return strings.Contains(url, "code=") &&
		!strings.HasPrefix(url, "chrome://") &&
		!strings.HasPrefix(url, "chrome-error://")
}

// chooserClickScript returns JS that clicks the account-chooser entry
// matching email, falling back to the first listed account. Evaluates to
// true if anything was clicked.
func chooserClickScript(email string) string {
	return fmt.Sprintf(`(() => {
	const exact = document.querySelector('[data-identifier=%q]') ||
		document.querySelector('[data-email=%q]');
	if (exact) { exact.click(); return true; }
	const needle = %q.toLowerCase();
	for (const li of document.querySelectorAll('li')) {
		if (li.innerText && li.innerText.toLowerCase().includes(needle)) {
			li.click();
			return true;
		}
	}
	const first = document.querySelector('ul li');
	if (first) { first.click(); return true; }
	return false;
})()`, email, email, email)
}

// continueClickScript clicks brand-account confirm buttons and any button
// labeled Continue (case-insensitive).
const continueClickScript = `(() => {
	for (const b of document.querySelectorAll('button')) {
		const dest = b.getAttribute('data-destination-info') || '';
		if (dest.includes('Choosing an account will redirect you to')) {
			b.click();
			return true;
		}
	}
	for (const b of document.querySelectorAll('button')) {
		const text = (b.innerText || '').trim().toLowerCase();
		if (text === 'continue' || text === 'got it' || text === 'ok') {
			b.click();
			return true;
		}
	}
	return false;
})()`

// checkConsentBoxesScript ticks unchecked scope checkboxes on the consent form.
const checkConsentBoxesScript = `(() => {
	let changed = false;
	for (const cb of document.querySelectorAll('form input[type="checkbox"]')) {
		if (!cb.checked) { cb.click(); changed = true; }
	}
	return changed;
})()`

// uncheckBoxesScript clears "remember this device" style checkboxes on the
// two-factor screen.
const uncheckBoxesScript = `(() => {
	for (const cb of document.querySelectorAll('input[type="checkbox"]')) {
		if (cb.checked) { cb.click(); }
	}
	return true;
})()`
