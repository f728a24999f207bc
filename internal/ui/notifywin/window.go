// Package notifywin draws the expiry notification as a small centred fyne
// window.
package notifywin

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/sadopc/daytick/internal/notify"
)

// Config defines window geometry.
type Config struct {
	Width  int
	Height int
}

var (
	colorBackground = color.NRGBA{R: 15, G: 15, B: 26, A: 255}
	colorText       = color.NRGBA{R: 235, G: 235, B: 245, A: 255}
	colorMuted      = color.NRGBA{R: 160, G: 160, B: 180, A: 255}
	colorFocus      = color.NRGBA{R: 124, G: 58, B: 237, A: 255}
	colorPin        = color.NRGBA{R: 250, G: 204, B: 21, A: 255}
)

// Show opens the window and blocks until it closes. onAction runs off the
// UI goroutine when the button is pressed; the window closes when it returns.
func Show(config Config, content notify.Content, onAction func()) {
	fyneApp := app.NewWithID("com.sadopc.daytick.notify")
	window := fyneApp.NewWindow(content.Title)
	window.SetPadded(true)

	icon := canvas.NewText(content.Icon, colorText)
	icon.Alignment = fyne.TextAlignCenter
	icon.TextSize = 64

	title := canvas.NewText(content.Title, colorText)
	title.Alignment = fyne.TextAlignCenter
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.TextSize = 22

	message := widget.NewLabel(content.Message)
	message.Alignment = fyne.TextAlignCenter
	message.Wrapping = fyne.TextWrapWord

	accent := colorFocus
	if content.Accent {
		accent = colorPin
	}
	button := widget.NewButton(content.Button, nil)
	button.Importance = widget.HighImportance
	button.OnTapped = func() {
		button.Disable()
		go func() {
			if onAction != nil {
				onAction()
			}
			fyne.Do(fyneApp.Quit)
		}()
	}
	bar := canvas.NewRectangle(accent)
	bar.SetMinSize(fyne.NewSize(0, 4))

	caption := canvas.NewText("daytick", colorMuted)
	caption.Alignment = fyne.TextAlignCenter
	caption.TextSize = 11

	body := container.NewVBox(
		layout.NewSpacer(),
		icon,
		title,
		message,
		layout.NewSpacer(),
		bar,
		button,
		caption,
	)
	window.SetContent(container.NewStack(canvas.NewRectangle(colorBackground), body))

	window.Resize(fyne.NewSize(float32(config.Width), float32(config.Height)))
	window.SetFixedSize(true)
	window.CenterOnScreen()
	window.RequestFocus()
	window.ShowAndRun()
}
