// Package browser drives a single remote Chromium page on behalf of the agent.
//
// The agent never sees CSS selectors or DOM nodes. The model looks at a
// screenshot and answers with an action on a normalized 1000x1000 grid; this
// package maps that grid onto the live viewport and replays the action as
// low-level mouse and keyboard primitives.
//
// # Architecture
//
//  1. Page: the narrow driver surface the dispatcher needs (mouse, keyboard,
//     navigation, screenshots). The production implementation wraps a
//     playwright-go page; tests use a recording fake.
//  2. Launcher: owns the playwright driver process and connects to a remote
//     browser over CDP, yielding a Session.
//  3. Execute: the action dispatcher. One tool call in, a fixed sequence of
//     Page primitives out.
//
// # Session Lifecycle
//
//	launcher := browser.NewLauncher()
//	session, err := launcher.Connect(ctx, cdpURL)
//	if err != nil {
//	    return err
//	}
//	defer launcher.Shutdown()
//	defer session.Close()
//
//	err = browser.Execute(ctx, session.Page(), "left_click",
//	    map[string]any{"coordinates": []any{500.0, 500.0}}, vp)
//
// Sessions reuse the first existing browser context and page when the remote
// endpoint already has one open, which is the normal case for hosted
// scraping browsers.
package browser
