package resolve

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

// Page is the part of a browser tab the resolver drives.
type Page interface {
	Goto(url string, timeout time.Duration) error
	// Query returns every element matching selector, in document order.
	Query(selector string) ([]Element, error)
	// Content returns the serialized DOM.
	Content() (string, error)
	// ExpectDownload runs trigger and waits up to timeout for the download
	// it starts.
	ExpectDownload(timeout time.Duration, trigger func() error) (Download, error)
	// OnDownload registers handler for every download the page starts,
	// for the lifetime of the page.
	OnDownload(handler func(Download))
}

type Element interface {
	Attr(name string) (string, error)
	Text() (string, error)
	// Click dispatches a DOM click, bypassing overlays that would swallow a
	// pointer click.
	Click() error
}

type Download interface {
	SuggestedFilename() string
	SaveAs(path string) error
}

type browserProvider interface {
	Install() error
	Run() (browserRunner, error)
}

type browserRunner interface {
	LaunchPersistent(profileDir, downloadsDir string, headless bool) (browserContext, error)
	Stop() error
}

type browserContext interface {
	Page() (Page, error)
	Close() error
}

// automationArgs keeps navigator.webdriver unset so the catalog treats the
// persistent profile like a regular browser.
var automationArgs = []string{"--disable-blink-features=AutomationControlled"}

type playwrightProvider struct{}

func (playwrightProvider) Install() error {
	return playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}})
}

func (playwrightProvider) Run() (browserRunner, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, err
	}
	return &playwrightRunner{pw: pw}, nil
}

type playwrightRunner struct {
	pw *playwright.Playwright
}

func (r *playwrightRunner) LaunchPersistent(profileDir, downloadsDir string, headless bool) (browserContext, error) {
	opts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:        playwright.Bool(headless),
		AcceptDownloads: playwright.Bool(true),
		Args:            automationArgs,
	}
	if downloadsDir != "" {
		opts.DownloadsPath = playwright.String(downloadsDir)
	}
	bc, err := r.pw.Chromium.LaunchPersistentContext(profileDir, opts)
	if err != nil {
		return nil, err
	}
	return &playwrightContext{bc: bc}, nil
}

func (r *playwrightRunner) Stop() error {
	return r.pw.Stop()
}

type playwrightContext struct {
	bc playwright.BrowserContext
}

// Page reuses the tab a persistent context opens with, if any.
func (c *playwrightContext) Page() (Page, error) {
	if pages := c.bc.Pages(); len(pages) > 0 {
		return &playwrightPage{page: pages[0]}, nil
	}
	page, err := c.bc.NewPage()
	if err != nil {
		return nil, err
	}
	return &playwrightPage{page: page}, nil
}

func (c *playwrightContext) Close() error {
	return c.bc.Close()
}

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (p *playwrightPage) Query(selector string) ([]Element, error) {
	locs, err := p.page.Locator(selector).All()
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(locs))
	for _, l := range locs {
		out = append(out, playwrightElement{loc: l})
	}
	return out, nil
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) ExpectDownload(timeout time.Duration, trigger func() error) (Download, error) {
	dl, err := p.page.ExpectDownload(trigger, playwright.PageExpectDownloadOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return nil, err
	}
	return dl, nil
}

// OnDownload runs handler on its own goroutine: SaveAs blocks until the
// transfer ends and must not stall the driver's event dispatch.
func (p *playwrightPage) OnDownload(handler func(Download)) {
	p.page.OnDownload(func(d playwright.Download) {
		go handler(d)
	})
}

type playwrightElement struct {
	loc playwright.Locator
}

func (e playwrightElement) Attr(name string) (string, error) {
	return e.loc.GetAttribute(name)
}

func (e playwrightElement) Text() (string, error) {
	return e.loc.InnerText()
}

func (e playwrightElement) Click() error {
	_, err := e.loc.Evaluate("el => el.click()", nil)
	return err
}
