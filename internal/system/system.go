package system

import (
	"fmt"
	"log"
	"os/exec"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/mem"
)

// InitResourceLimits поднимает лимит открытых файлов: загрузчик открывает
// все кадры одновременно.
func InitResourceLimits(frames int) {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	want := uint64(frames) + 256
	if want < 2048 {
		want = 2048
	}
	if rLimit.Cur >= want {
		return
	}
	rLimit.Cur = want
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	} else {
		log.Printf("[*] Системный лимит открытых файлов увеличен до %d", rLimit.Cur)
	}
}

// FrameMemory оценивает объём декодированного набора кадров в байтах (RGBA).
func FrameMemory(frames, width, height int) uint64 {
	return uint64(frames) * uint64(width) * uint64(height) * 4
}

// CheckFrameMemory сравнивает оценку с доступной памятью. Возвращает false,
// если кадры, скорее всего, не поместятся.
func CheckFrameMemory(frames, width, height int) (bool, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return true, fmt.Errorf("не удалось получить сведения о памяти: %w", err)
	}
	need := FrameMemory(frames, width, height)
	if need > vm.Available {
		log.Printf("[!] Кадрам нужно ~%d МБ, доступно %d МБ", need>>20, vm.Available>>20)
		return false, nil
	}
	log.Printf("[*] Память под кадры: ~%d МБ из %d МБ доступных", need>>20, vm.Available>>20)
	return true, nil
}

// GetBestH264Encoder выбирает аппаратный энкодер, если ffmpeg его поддерживает.
func GetBestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), name) {
			return name
		}
	}
	return "libx264"
}

// DefaultQuality подбирает качество по умолчанию для энкодера.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}
