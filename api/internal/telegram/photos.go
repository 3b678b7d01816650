package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	xdraw "golang.org/x/image/draw"

	"homework-check/api/internal/correct"
	"homework-check/api/internal/store"
	"homework-check/api/internal/util"
)

// cacheTTL mirrors the HTTP front-end: same photo, same subject and grade
// inside the window is answered from the store.
const cacheTTL = 24 * time.Hour

func (r *Router) acceptPhoto(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	ph := msg.Photo[len(msg.Photo)-1]
	file, err := r.Bot.GetFile(tgbotapi.FileConfig{FileID: ph.FileID})
	if err != nil {
		r.SendError(cid, err)
		return
	}
	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", r.Bot.Token, file.FilePath)
	imgBytes, err := download(url)
	if err != nil {
		r.SendError(cid, err)
		return
	}

	key := "chat:" + fmt.Sprint(cid)
	if msg.MediaGroupID != "" {
		key = "grp:" + msg.MediaGroupID
	}

	bi, _ := batches.LoadOrStore(key, &photoBatch{
		ChatID: cid, Key: key, MediaGroupID: msg.MediaGroupID, images: make([][]byte, 0, 4),
	})
	b := bi.(*photoBatch)

	b.mu.Lock()
	b.images = append(b.images, imgBytes)
	first := len(b.images) == 1
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(debounce, func() { r.processBatch(key) })
	b.mu.Unlock()

	if first {
		r.send(cid, r.PhotoAcceptedText())
	}
}

func (r *Router) processBatch(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	bi, ok := batches.Load(key)
	if !ok {
		return
	}
	b := bi.(*photoBatch)

	b.mu.Lock()
	images := append([][]byte(nil), b.images...)
	chatID := b.ChatID
	batches.Delete(key)
	b.mu.Unlock()

	if len(images) == 0 {
		return
	}

	merged, err := mergePages(images)
	if err != nil {
		r.SendError(chatID, fmt.Errorf("拼接照片: %w", err))
		return
	}

	subject := r.subjectFor(chatID)
	grade := r.gradeFor(chatID)
	hash := util.SHA256Hex(merged)

	if r.Repo != nil {
		if row, err := r.Repo.FindByHash(ctx, hash, subject, grade, cacheTTL); err == nil {
			r.send(chatID, renderResult(&row.Result))
			return
		} else if err != store.ErrNotFound {
			log.Printf("result cache lookup: %v", err)
		}
	}

	res, err := r.Pipe.Correct(ctx, correct.Input{
		Image:      merged,
		Subject:    subject,
		GradeLevel: grade,
		StudentID:  fmt.Sprint(chatID),
		Preprocess: r.Preprocess,
	})
	if err != nil {
		var noQ *correct.NoQuestionsError
		if errors.As(err, &noQ) && noQ.RawText != "" {
			r.send(chatID, "没有识别出完整的题目。识别到的文字：\n\n"+clip(noQ.RawText, 3000))
			return
		}
		r.SendError(chatID, err)
		return
	}

	if r.Repo != nil {
		if err := r.Repo.Save(ctx, hash, subject, grade, res); err != nil {
			log.Printf("result cache save: %v", err)
		}
	}
	r.send(chatID, renderResult(res))
}

// mergePages stacks album pages vertically on a white canvas so the pipeline
// sees a single worksheet.
func mergePages(images [][]byte) ([]byte, error) {
	decoded := make([]image.Image, 0, len(images))
	maxW, sumH := 0, 0
	for _, b := range images {
		img, _, err := image.Decode(bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		decoded = append(decoded, img)
		if w := img.Bounds().Dx(); w > maxW {
			maxW = w
		}
		sumH += img.Bounds().Dy()
	}
	if maxW == 0 || sumH == 0 {
		return nil, fmt.Errorf("empty images")
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxW, sumH))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	y := 0
	for _, img := range decoded {
		w, h := img.Bounds().Dx(), img.Bounds().Dy()
		x := (maxW - w) / 2
		draw.Draw(dst, image.Rect(x, y, x+w, y+h), img, img.Bounds().Min, draw.Over)
		y += h
	}

	final := image.Image(dst)
	if total := maxW * sumH; total > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(total))
		newW := max(1, int(float64(maxW)*scale+0.5))
		newH := max(1, int(float64(sumH)*scale+0.5))
		small := image.NewRGBA(image.Rect(0, 0, newW, newH))
		xdraw.CatmullRom.Scale(small, small.Bounds(), dst, dst.Bounds(), xdraw.Over, nil)
		final = small
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, final, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// clip counts runes, not bytes: the report text is mostly CJK and slicing on
// bytes could cut a character in half.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n]) + "…"
	}
	return s
}

func download(url string) ([]byte, error) {
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}
