// Package ocr runs Tesseract (via gosseract/v2) over guest photos to catch
// uploads that are screenshots of phones or chats rather than photos of the
// event.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the host:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// When Tesseract is missing, Info reports Available=false and the check
// functions return an error; callers treat that as "unknown" and let the
// upload through.
//
// # Screenshot Heuristic
//
// Event photos rarely contain much legible text. Chat screenshots are mostly
// text. CheckScreenshot counts confidently recognised words and how much of
// the frame their boxes cover; a photo is flagged when both exceed the
// thresholds in ScreenshotOptions. Signage, menus and printed programmes can
// trip the word count alone, which is why coverage is required as well.
package ocr
