// Package pagemodel holds the locators and text fixtures of the editor under
// test, grouped by page. Descriptors are built once by New and passed
// explicitly to the code that needs them.
package pagemodel

import (
	"strings"

	"github.com/SH1NK10KU/shin-macaca/pkg/locator"
)

// DefaultBaseURL is the public site of the application under test.
const DefaultBaseURL = "https://www.strikingly.com"

// activePanel is the currently visible tutorial panel.
const activePanel = `//div[contains(@class, "panel") and contains(@class, "active")]`

// Model groups every page descriptor.
type Model struct {
	Login     LoginPage
	Dashboard DashboardPage
	Tutorial  TutorialPage
}

// LoginPage is the sign-in form.
type LoginPage struct {
	URL           string
	EmailField    locator.Locator
	PasswordField locator.Locator
	LogInButton   locator.Locator
}

// DashboardPage lists the user's sites.
type DashboardPage struct {
	// EditButton matches every site's edit button; pick one by index.
	EditButton locator.Locator
}

// TutorialPage is the site editor with the guided tour open.
type TutorialPage struct {
	PopupDialog PopupDialog
	Menu        Menu
	Page        EditorPage
	Toolbar     Toolbar
}

// PopupDialog is the active tour dialog.
type PopupDialog struct {
	Title   locator.Locator
	Content locator.Locator

	titleByText  locator.Template
	buttonByText locator.Template
}

// TitleXPath matches the active dialog when its title contains title.
func (d PopupDialog) TitleXPath(title string) string { return d.titleByText.Fill(title) }

// ButtonXPath matches the active dialog's navigation button by label.
func (d PopupDialog) ButtonXPath(text string) string { return d.buttonByText.Fill(text) }

// Menu is the editor side bar.
type Menu struct {
	Sections  Sections
	EditFonts EditFonts
}

// Sections is the section list of the side bar.
type Sections struct {
	ContactUsButton locator.Locator
}

// EditFonts is the font picker.
type EditFonts struct {
	fontByName locator.Template
}

// FontXPath matches a font entry by its display name.
func (f EditFonts) FontXPath(name string) string { return f.fontByName.Fill(name) }

// EditorPage is the editable site canvas.
type EditorPage struct {
	ContactWithUsTextBox locator.Locator
}

// Toolbar is the rich-text toolbar shown while editing text.
type Toolbar struct {
	FontFamilyButton locator.Locator
}

// New builds the page model. An empty baseURL selects DefaultBaseURL.
func New(baseURL string) *Model {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &Model{
		Login: LoginPage{
			URL:           baseURL + "/s/login",
			EmailField:    locator.ByID("user_email"),
			PasswordField: locator.ByID("user_password"),
			LogInButton:   locator.ByClassName("s-btn"),
		},
		Dashboard: DashboardPage{
			EditButton: locator.ByCSS(".edit"),
		},
		Tutorial: TutorialPage{
			PopupDialog: PopupDialog{
				Title:        locator.ByXPath(activePanel + `/div[@class="text"]/h3`),
				Content:      locator.ByCSS(".panel.active > .text"),
				titleByText:  locator.NewTemplate(activePanel + `/div[@class="text"]/h3[contains(text(), %s)]`),
				buttonByText: locator.NewTemplate(activePanel + `/div[@class="next"]/a[contains(text(), %s)]`),
			},
			Menu: Menu{
				Sections: Sections{
					ContactUsButton: locator.ByXPath(`//div[contains(@class,"section-button") and contains(text(), "Contact Us")]`),
				},
				EditFonts: EditFonts{
					fontByName: locator.NewTemplate(`//div[@class="font-item-inner" and contains(text(), %s)]`),
				},
			},
			Page: EditorPage{
				ContactWithUsTextBox: locator.ByXPath(`//div[@role="textbox"]/p[contains(text(), "Connect With Us")]`),
			},
			Toolbar: Toolbar{
				FontFamilyButton: locator.ByID("cke_599"),
			},
		},
	}
}
