// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package webdriver is a client for remote ends that speak the WebDriver JSON
// wire protocol, such as a Selenium server.
//
// Every driver operation becomes a Command. An HTTPCommandExecutor resolves
// the command to a method and URL through a static route table, sends the
// parameters as a JSON array and decodes the reply into a Response. The
// RemoteWebDriver and RemoteWebElement types turn responses into Go values or
// errors; remote failures are classified once and can be tested with
// errors.Is against ErrNoSuchElement, ErrStaleElementReference and friends.
//
// Example:
//	executor, err := webdriver.NewHTTPCommandExecutor("http://127.0.0.1:4444/wd/hub")
//	if err != nil {
//		log.Fatal(err)
//	}
//	ctx := context.Background()
//	driver, err := webdriver.NewRemoteWebDriver(ctx, executor, webdriver.Firefox())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer driver.Quit(ctx)
//	if err := driver.Get(ctx, "http://golang.org"); err != nil {
//		log.Println(err)
//	}
//	q, err := driver.FindElement(ctx, webdriver.ByName("q"))
//	if err != nil {
//		log.Println(err)
//	}
//	q.SendKeys(ctx, "webdriver")
//
// A single driver serialises its own commands. Use one driver per session to
// run sessions concurrently.
package webdriver
