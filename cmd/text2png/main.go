package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"

	"pixelmirror/pkg/textimg"
)

const version = "1.1.0"

var scale = flag.IntP("scale", "s", 1, "scale up the image this much before saving it")
var out = flag.StringP("out", "o", filepath.Join("imgs", "upscale"), "output dir")
var showVersion = flag.Bool("version", false, "print version")

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	text, s := flag.Arg(0), *scale
	if text == "" {
		var err error
		if text, s, err = prompt(bufio.NewReader(os.Stdin), *scale); err != nil {
			log.Fatal(err)
		}
	}

	for _, c := range textimg.Colours(textimg.Pad(text)) {
		fmt.Println(c)
	}

	img, err := textimg.Render(text, s)
	if err != nil {
		log.Fatal(err)
	}

	fs := afero.NewOsFs()
	if err := fs.MkdirAll(*out, 0755); err != nil {
		log.Fatal(err)
	}

	if err := afero.WriteFile(fs, filepath.Join(*out, img.Name), img.Data, 0644); err != nil {
		log.Fatal(err)
	}
}

// prompt asks for the text and the scale. A blank or zero scale keeps def.
func prompt(r *bufio.Reader, def int) (string, int, error) {
	fmt.Print("Text: ")
	text, err := r.ReadString('\n')
	if err != nil && text == "" {
		return "", 0, err
	}

	fmt.Print("Scale: ")
	line, _ := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return strings.TrimRight(text, "\r\n"), def, nil
	}

	s, err := strconv.Atoi(line)
	if err != nil {
		return "", 0, fmt.Errorf("invalid scale %q: %w", line, err)
	}
	if s == 0 {
		s = def
	}

	return strings.TrimRight(text, "\r\n"), s, nil
}
