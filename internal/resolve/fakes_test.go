package resolve

import (
	"errors"
	"os"
	"time"
)

type fakeElement struct {
	attrs    map[string]string
	text     string
	clickErr error
	clicks   int
	onClick  func()
}

func (e *fakeElement) Attr(name string) (string, error) {
	return e.attrs[name], nil
}

func (e *fakeElement) Text() (string, error) {
	return e.text, nil
}

func (e *fakeElement) Click() error {
	e.clicks++
	if e.onClick != nil {
		e.onClick()
	}
	return e.clickErr
}

type fakeDownload struct {
	name    string
	content string
	saveErr error
	savedTo string
}

func (d *fakeDownload) SuggestedFilename() string {
	return d.name
}

func (d *fakeDownload) SaveAs(path string) error {
	if d.saveErr != nil {
		return d.saveErr
	}
	d.savedTo = path
	return os.WriteFile(path, []byte(d.content), 0600)
}

type fakePage struct {
	gotoErr     error
	gotoURL     string
	gotoTimeout time.Duration

	elements map[string][]Element
	queryErr map[string]error
	queries  map[string]int
	onQuery  func(selector string, n int)

	html string

	download      *fakeDownload
	downloadErr   error
	expectTimeout time.Duration

	// late is delivered to the download listeners after ExpectDownload
	// has given up on it.
	late      *fakeDownload
	listeners []func(Download)
}

func newFakePage() *fakePage {
	return &fakePage{
		elements: map[string][]Element{},
		queryErr: map[string]error{},
		queries:  map[string]int{},
	}
}

func (p *fakePage) set(selector string, els ...*fakeElement) {
	out := make([]Element, 0, len(els))
	for _, e := range els {
		out = append(out, e)
	}
	p.elements[selector] = out
}

func (p *fakePage) Goto(url string, timeout time.Duration) error {
	p.gotoURL = url
	p.gotoTimeout = timeout
	return p.gotoErr
}

func (p *fakePage) Query(selector string) ([]Element, error) {
	p.queries[selector]++
	if p.onQuery != nil {
		p.onQuery(selector, p.queries[selector])
	}
	if err := p.queryErr[selector]; err != nil {
		return nil, err
	}
	return p.elements[selector], nil
}

func (p *fakePage) Content() (string, error) {
	return p.html, nil
}

func (p *fakePage) ExpectDownload(timeout time.Duration, trigger func() error) (Download, error) {
	p.expectTimeout = timeout
	if err := trigger(); err != nil {
		return nil, err
	}
	if p.downloadErr != nil {
		return nil, p.downloadErr
	}
	if p.download == nil {
		if p.late != nil {
			p.emit(p.late)
		}
		return nil, errors.New("timeout waiting for download")
	}
	p.emit(p.download)
	return p.download, nil
}

func (p *fakePage) OnDownload(handler func(Download)) {
	p.listeners = append(p.listeners, handler)
}

func (p *fakePage) emit(d Download) {
	for _, h := range p.listeners {
		h(d)
	}
}

type fakeProvider struct {
	installErr error
	runErr     error
	installed  bool
	runner     *fakeRunner
}

func (p *fakeProvider) Install() error {
	p.installed = true
	return p.installErr
}

func (p *fakeProvider) Run() (browserRunner, error) {
	if p.runErr != nil {
		return nil, p.runErr
	}
	if p.runner == nil {
		p.runner = &fakeRunner{}
	}
	return p.runner, nil
}

type fakeRunner struct {
	launchErr  error
	stopErr    error
	stopped    int
	profileDir   string
	downloadsDir string
	headless     bool
	bctx         *fakeContext
}

func (r *fakeRunner) LaunchPersistent(profileDir, downloadsDir string, headless bool) (browserContext, error) {
	r.profileDir = profileDir
	r.downloadsDir = downloadsDir
	r.headless = headless
	if r.launchErr != nil {
		return nil, r.launchErr
	}
	if r.bctx == nil {
		r.bctx = &fakeContext{}
	}
	return r.bctx, nil
}

func (r *fakeRunner) Stop() error {
	r.stopped++
	return r.stopErr
}

type fakeContext struct {
	pageErr error
	closed  int
	page    *fakePage
}

func (c *fakeContext) Page() (Page, error) {
	if c.pageErr != nil {
		return nil, c.pageErr
	}
	c.page = newFakePage()
	return c.page, nil
}

func (c *fakeContext) Close() error {
	c.closed++
	return nil
}
