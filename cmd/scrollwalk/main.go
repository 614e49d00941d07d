package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/ivlev/scrollwalk/internal/config"
	"github.com/ivlev/scrollwalk/internal/engine"
	"github.com/ivlev/scrollwalk/internal/host"
	"github.com/ivlev/scrollwalk/internal/renderer"
	"github.com/ivlev/scrollwalk/internal/source"
	"github.com/ivlev/scrollwalk/internal/system"
	"github.com/ivlev/scrollwalk/internal/video"
)

func main() {
	configPtr := flag.String("config", "", "Путь к YAML-конфигурации (по умолчанию: встроенная прогулка)")
	assetsPtr := flag.String("assets", "", "Папка или http(s) URL с кадрами (переопределяет assets.base)")
	writeConfigPtr := flag.String("write-config", "", "Записать итоговую конфигурацию в YAML и выйти")
	presetPtr := flag.String("preset", "", "Пресет окна: desktop (1280x720), mobile (390x844), 4k (3840x2160)")
	widthPtr := flag.Float64("width", 0, "Ширина вьюпорта в логических пикселях (0 - из конфигурации)")
	heightPtr := flag.Float64("height", 0, "Высота вьюпорта в логических пикселях (0 - из конфигурации)")
	dprPtr := flag.Float64("dpr", 0, "Плотность пикселей (0 - из конфигурации)")
	qualityPtr := flag.String("quality", "", "Качество масштабирования: high, medium, low")
	exportPtr := flag.String("export", "", "Записать видео прокрутки вместо окна (auto - имя в output/)")
	durationPtr := flag.Float64("duration", 0, "Длительность видео в секундах (0 - из конфигурации)")
	fpsPtr := flag.Int("fps", 0, "FPS видео (0 - из конфигурации)")

	flag.Parse()

	cfg := config.Default()
	if *configPtr != "" {
		var err error
		cfg, err = config.ReadConfig(*configPtr)
		if err != nil {
			log.Fatalf("[-] Ошибка чтения конфигурации: %v", err)
		}
		fmt.Printf("[*] Используется конфигурация: %s\n", *configPtr)
	}

	switch *presetPtr {
	case "":
	case "desktop":
		cfg.Viewport = renderer.Viewport{Width: 1280, Height: 720, DPR: 1}
	case "mobile":
		cfg.Viewport = renderer.Viewport{Width: 390, Height: 844, DPR: 3}
	case "4k":
		cfg.Viewport = renderer.Viewport{Width: 3840, Height: 2160, DPR: 1}
	default:
		log.Fatalf("[-] Неизвестный пресет: %s", *presetPtr)
	}

	if *assetsPtr != "" {
		cfg.Assets.Base = *assetsPtr
	}
	if *widthPtr > 0 {
		cfg.Viewport.Width = *widthPtr
	}
	if *heightPtr > 0 {
		cfg.Viewport.Height = *heightPtr
	}
	if *dprPtr > 0 {
		cfg.Viewport.DPR = *dprPtr
	}
	if *qualityPtr != "" {
		cfg.Render.Quality = renderer.Quality(*qualityPtr)
	}
	if *durationPtr > 0 {
		cfg.Export.Duration = *durationPtr
	}
	if *fpsPtr > 0 {
		cfg.Export.FPS = *fpsPtr
	}
	if *exportPtr != "" {
		cfg.Export.Output = *exportPtr
	}
	if cfg.Export.Output == "auto" {
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		cfg.Export.Output = filepath.Join("output", fmt.Sprintf("scrollwalk_%s.mp4", timestamp))
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Некорректная конфигурация: %v", err)
	}

	if *writeConfigPtr != "" {
		if err := config.WriteConfig(cfg, *writeConfigPtr); err != nil {
			log.Fatalf("[-] Ошибка записи конфигурации: %v", err)
		}
		fmt.Printf("[+++] Конфигурация сохранена: %s\n", *writeConfigPtr)
		return
	}

	m, err := cfg.SegmentMap()
	if err != nil {
		log.Fatalf("[-] Ошибка сегментов: %v", err)
	}

	// Загрузчик открывает все кадры одновременно
	system.InitResourceLimits(m.Total())

	pw, ph := cfg.Viewport.Physical()
	if ok, err := system.CheckFrameMemory(m.Total(), pw, ph); err != nil {
		log.Printf("[!] %v", err)
	} else if !ok {
		log.Printf("[!] Кадры могут не поместиться в память, попробуйте -preset desktop или -dpr 1")
	}

	fetcher, err := source.New(cfg.Assets.Base)
	if err != nil {
		log.Fatalf("[-] Ошибка инициализации источника: %v", err)
	}
	defer fetcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("--- [SCROLLWALK] ---")
	fmt.Printf("[*] Источник: %s | Кадров: %d\n", cfg.Assets.Base, m.Total())
	fmt.Printf("[*] Вьюпорт: %.0fx%.0f @ DPR %.2f | Качество: %s\n", cfg.Viewport.Width, cfg.Viewport.Height, cfg.Viewport.DPR, cfg.Render.Quality)
	fmt.Println("--------------------")

	if cfg.Export.Output == "" {
		if err := host.RunWindow(ctx, cfg, fetcher, log.Default()); err != nil {
			log.Fatalf("[-] Ошибка окна: %v", err)
		}
		return
	}

	if err := export(ctx, cfg, fetcher); err != nil {
		log.Fatalf("[-] Ошибка экспорта: %v", err)
	}
	fmt.Printf("[+++] Успех! Результат: %s\n", cfg.Export.Output)
}

func export(ctx context.Context, cfg *config.Config, fetcher source.Fetcher) error {
	encoderName := cfg.Export.Encoder
	if encoderName == "" {
		encoderName = system.GetBestH264Encoder()
	}
	if encoderName != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
	}
	quality := cfg.Export.Quality
	if quality == 0 {
		quality = system.DefaultQuality(encoderName)
	}

	// Убеждаемся, что директория существует
	os.MkdirAll(filepath.Dir(cfg.Export.Output), 0755)

	pw, ph := cfg.Viewport.Physical()
	enc, err := video.Start(ctx, video.Params{
		Width:   pw,
		Height:  ph,
		FPS:     cfg.Export.FPS,
		Encoder: encoderName,
		Quality: quality,
		Output:  cfg.Export.Output,

		Duration: cfg.Export.Duration,
		Fade:     cfg.Export.Fade,
	})
	if err != nil {
		return err
	}

	stats, err := engine.Export(ctx, cfg, fetcher, enc)
	if cerr := enc.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	fps := float64(stats.Frames) / stats.Elapsed.Seconds()
	fmt.Printf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Frames: %d (failed sources: %d)\n"+
			"Draws: %d | Holds: %d\n"+
			"Total Time: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
		stats.Frames, stats.Failed, stats.Draws, stats.Holds, stats.Elapsed.Seconds(), fps,
	)
	return nil
}
