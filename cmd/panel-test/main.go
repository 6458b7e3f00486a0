package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/panel"
	"github.com/BeatGlow/panel/draw"
	"github.com/BeatGlow/panel/pixel"
	"github.com/BeatGlow/panel/preview"
)

func main() {
	widthFlag := flag.Int("width", 0, "Display width (default: driver default)")
	heightFlag := flag.Int("height", 0, "Display height (default: driver default)")
	xOffsetFlag := flag.Int("x-offset", 0, "Column offset of the visible area")
	yOffsetFlag := flag.Int("y-offset", 0, "Row offset of the visible area")
	bufferedFlag := flag.Bool("buffered", true, "Keep a local frame buffer, pushed per frame")
	invertFlag := flag.Bool("invert", false, "Invert colors")
	i2cDeviceFlag := flag.Int("i2c-dev", panel.DefaultI2CConfig.Device, "I²C device number (default: use first available)")
	i2cAddrFlag := flag.Uint("i2c-addr", uint(panel.DefaultI2CConfig.Addr), "I²C device address")
	spiBusFlag := flag.Int("spi-bus", panel.DefaultSPIConfig.Bus, "SPI bus")
	spiDeviceFlag := flag.Int("spi-dev", panel.DefaultSPIConfig.Device, "SPI device")
	spiSpeedFlag := flag.Int64("spi-speed", int64(panel.DefaultSPIConfig.Speed/physic.Hertz), "SPI speed in Hz")
	resetPinFlag := flag.String("reset", "GPIO25", "Reset GPIO pin")
	dcPinFlag := flag.String("dc", "GPIO24", "Data/Command GPIO pin (DC)")
	csPinFlag := flag.String("cs", "", "Chip select GPIO pin (default: hardware chip select)")
	blPinFlag := flag.String("bl", "", "Backlight GPIO pin")
	framesFlag := flag.Int("frames", 0, "Number of frames to draw (default: until interrupted)")
	previewFlag := flag.Bool("preview", false, "Render every frame to the terminal")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <i2c|spi|none> <ssd1306|st7735|dummy>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if _, err := host.Init(); err != nil {
		fatal(err)
	}

	var (
		config = &panel.Config{
			Geometry: panel.Geometry{
				Width:   dimension("width", *widthFlag),
				Height:  dimension("height", *heightFlag),
				XOffset: dimension("x-offset", *xOffsetFlag),
				YOffset: dimension("y-offset", *yOffsetFlag),
			},
			Buffered:     *bufferedFlag,
			InvertColors: *invertFlag,
		}
		conn   panel.Conn
		output panel.Display
		err    error
	)
	if *blPinFlag != "" {
		config.Backlight = gpioreg.ByName(*blPinFlag)
	}

	switch busType := strings.ToLower(flag.Arg(0)); busType {
	case "i2c":
		conn, err = panel.OpenI2C(&panel.I2CConfig{
			Device: *i2cDeviceFlag,
			Addr:   uint8(*i2cAddrFlag),
			Reset:  gpioreg.ByName(*resetPinFlag),
		})
	case "spi":
		spiConfig := panel.DefaultSPIConfig
		spiConfig.Bus = *spiBusFlag
		spiConfig.Device = *spiDeviceFlag
		spiConfig.Speed = physic.Frequency(*spiSpeedFlag) * physic.Hertz
		spiConfig.Reset = gpioreg.ByName(*resetPinFlag)
		spiConfig.DC = gpioreg.ByName(*dcPinFlag)
		if *csPinFlag != "" {
			spiConfig.CS = gpioreg.ByName(*csPinFlag)
		}
		conn, err = panel.OpenSPI(&spiConfig)
	case "none":
	default:
		err = fmt.Errorf("unsupported bus type %q", busType)
	}
	if err != nil {
		fatal(err)
	}
	if conn != nil {
		fmt.Printf("using connection: %s\n", conn)
	}

	switch driver := strings.ToLower(flag.Arg(1)); {
	case driver == "dummy":
		g := config.Geometry
		if g.Width == 0 || g.Height == 0 {
			g = panel.SSD1306_128x64
		}
		output = panel.NewDummy(g)
		if conn != nil {
			_ = conn.Close()
		}
	case conn == nil:
		err = fmt.Errorf("driver %q requires a bus", driver)
	case driver == "ssd1306":
		output, err = panel.SSD1306(conn, config)
	case driver == "st7735":
		output, err = panel.ST7735(conn, config)
	default:
		err = fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		if conn != nil {
			_ = conn.Close()
		}
		fatal(err)
	}
	fmt.Printf("using driver: %s\n", output)

	var term *preview.Preview
	if *previewFlag {
		term = preview.New(nil)
	}

	if err = run(output, term, *framesFlag); err != nil {
		fatal(err)
	}
}

// dimension checks a geometry flag value.
func dimension(name string, v int) uint16 {
	if v < 0 || v > 0xffff {
		fatal(fmt.Errorf("invalid %s %d", name, v))
	}
	return uint16(v)
}

// run draws frames until interrupted or frames have been drawn, frames 0 runs forever. The
// output is closed before run returns.
func run(output panel.Display, term *preview.Preview, frames int) (err error) {
	defer func() {
		if cerr := output.Close(); err == nil {
			err = cerr
		}
	}()

	var (
		size   = output.Bounds().Size()
		canvas = image.NewRGBA(image.Rectangle{Max: size})
		mono   = output.ColorModel() == pixel.MonoModel
		badge  = badgeImage(size, mono)
	)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	fmt.Println("hit control-c to stop...")
	for frame := 0; frames == 0 || frame < frames; frame++ {
		drawFrame(canvas, badge, mono, frame)
		draw.Draw(output, output.Bounds(), canvas, image.Point{}, draw.Src)
		if err := output.Flush(); err != nil {
			return err
		}
		if err := output.Err(); err != nil {
			return err
		}
		if term != nil {
			if err := term.Render(canvas); err != nil {
				return err
			}
		}

		select {
		case <-interrupt:
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

// drawFrame draws a box around the edge, a moving pattern and the badge.
func drawFrame(canvas *image.RGBA, badge image.Image, mono bool, offset int) {
	r := canvas.Bounds()
	for y := 1; y < r.Max.Y-1; y++ {
		for x := 1; x < r.Max.X-1; x++ {
			if mono {
				if (x+y+offset)%4 == 0 {
					canvas.Set(x, y, color.White)
				} else {
					canvas.Set(x, y, color.Black)
				}
				continue
			}
			canvas.Set(x, y, color.RGBA{
				R: uint8(x + y + offset),
				G: uint8(x - y + offset),
				B: uint8(x + y - offset),
				A: 0xff,
			})
		}
	}
	draw.Rectangle(canvas, r, color.White)

	b := badge.Bounds()
	at := image.Pt(r.Dx()/2-b.Dx()/2, r.Dy()/2-b.Dy()/2)
	draw.Draw(canvas, b.Add(at), badge, image.Point{}, draw.Over)
}

// badgeImage renders a rounded label for the panel size.
func badgeImage(size image.Point, mono bool) image.Image {
	w, h := size.X*3/4, min(size.Y/3, 24)
	ctx := gg.NewContext(w, h)

	fg, bg := color.Color(color.White), color.Color(color.NRGBA{R: 0x20, G: 0x40, B: 0xc0, A: 0xff})
	if mono {
		fg, bg = color.Black, color.White
	}
	ctx.SetColor(bg)
	ctx.DrawRoundedRectangle(0, 0, float64(w), float64(h), float64(h)/4)
	ctx.Fill()

	if face, err := draw.NewFace(nil, float64(h)*2/3); err == nil {
		ctx.SetFontFace(face)
	}
	ctx.SetColor(fg)
	ctx.DrawStringAnchored(fmt.Sprintf("%dx%d", size.X, size.Y), float64(w)/2, float64(h)/2, 0.5, 0.5)
	return ctx.Image()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
