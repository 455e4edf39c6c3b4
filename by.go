// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

type FindElementStrategy string

const (
	//Returns an element whose class name contains the search value; compound class names are not permitted.
	ClassName = FindElementStrategy("class name")
	//Returns an element matching a CSS selector.
	CSS_Selector = FindElementStrategy("css selector")
	//Returns an element whose ID attribute matches the search value.
	ID = FindElementStrategy("id")
	//Returns an element whose NAME attribute matches the search value.
	Name = FindElementStrategy("name")
	//Returns an anchor element whose visible text matches the search value.
	LinkText = FindElementStrategy("link text")
	//Returns an anchor element whose visible text partially matches the search value.
	PartialLinkText = FindElementStrategy("partial link text")
	//Returns an element whose tag name matches the search value.
	TagName = FindElementStrategy("tag name")
	//Returns an element matching an XPath expression.
	XPath = FindElementStrategy("xpath")
)

// By locates elements with a strategy and a search value.
type By struct {
	Using FindElementStrategy
	Value string
}

func ByID(id string) By { return By{ID, id} }
func ByName(name string) By { return By{Name, name} }
func ByClassName(class string) By { return By{ClassName, class} }
func ByCSSSelector(selector string) By { return By{CSS_Selector, selector} }
func ByLinkText(text string) By { return By{LinkText, text} }
func ByPartialLinkText(text string) By { return By{PartialLinkText, text} }
func ByTagName(tag string) By { return By{TagName, tag} }
func ByXPath(expression string) By { return By{XPath, expression} }

func (b By) String() string {
	return string(b.Using) + "=" + b.Value
}

func (b By) params() map[string]Value {
	return map[string]Value{
		"using": String(string(b.Using)),
		"value": String(b.Value),
	}
}
