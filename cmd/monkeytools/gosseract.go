//go:build gosseract

package main

// Links the in-process OCR engine; select it with ocr.engine: gosseract.
import _ "github.com/inf-monkeys/monkey-tools-text/pkg/ocr/tesseract"
