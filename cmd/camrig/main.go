package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/camrig/internal/bake"
	"github.com/ivlev/camrig/internal/config"
	"github.com/ivlev/camrig/internal/handler"
	"github.com/ivlev/camrig/internal/project"
	"github.com/ivlev/camrig/internal/rig"
	"github.com/ivlev/camrig/internal/shots"
)

const defaultProjectDir = "projects"

func main() {
	cfg := &config.Config{}
	flag.StringVar(&cfg.ProjectPath, "project", "", "Путь к проекту (json/yaml или папка; по умолчанию: самый свежий файл в projects/)")
	flag.StringVar(&cfg.Mode, "mode", "bake", "Режим: eval, range, bake, segments, shots, validate, serve")
	flag.StringVar(&cfg.OutputPath, "output", "", "Файл результата (если пусто, пишем в stdout)")
	flag.StringVar(&cfg.Format, "format", "yaml", "Формат результата: yaml, json")
	flag.IntVar(&cfg.Frame, "frame", 0, "Кадр для режима eval")
	flag.IntVar(&cfg.Start, "start", 0, "Первый кадр диапазона")
	flag.IntVar(&cfg.End, "end", -1, "Последний кадр диапазона (-1: последний кадр проекта)")
	flag.IntVar(&cfg.Step, "step", 0, "Шаг выборки для режима range (0: sample_step из camera_constraints)")
	flag.BoolVar(&cfg.ReduceKeys, "reduce", true, "Сокращать ключи (Douglas-Peucker)")
	flag.Float64Var(&cfg.MaxError, "max-error", 0.01, "Допустимая ошибка при сокращении ключей")
	flag.IntVar(&cfg.MaxKeys, "max-keys", 0, "Максимум ключей на канал (0: без ограничения)")
	flag.IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "Потоки")
	flag.StringVar(&cfg.Addr, "addr", "", "Адрес HTTP моста для режима serve (по умолчанию CAMRIG_ADDR или 127.0.0.1:8787)")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Уровень логов: debug, info, warn, error")
	flag.Parse()

	log := newLogger(cfg.LogLevel)

	if cfg.Mode == "serve" {
		serve(cfg, log)
		return
	}

	if cfg.ProjectPath == "" {
		latest, err := project.FindLatest(defaultProjectDir)
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите проект в %s/", err, defaultProjectDir)
		}
		cfg.ProjectPath = latest
		log.Infof("[*] Выбран проект: %s", cfg.ProjectPath)
	}

	p, err := project.Load(cfg.ProjectPath)
	if err != nil {
		log.Fatalf("[-] Ошибка загрузки проекта: %v", err)
	}
	for _, w := range p.Validate(config.DefaultValidationPolicy()) {
		log.Warnf("[!] %s", w)
	}

	if cfg.End < 0 {
		cfg.End = p.Meta.Frames - 1
	}

	r := rig.New(p, rig.WithLogger(log))
	doc, err := run(cfg, r)
	if err != nil {
		log.Fatalf("[-] Ошибка: %v", err)
	}

	if err := writeOutput(cfg, doc); err != nil {
		log.Fatalf("[-] Ошибка записи результата: %v", err)
	}
	if cfg.OutputPath != "" {
		log.Infof("[+] Результат сохранен: %s", cfg.OutputPath)
	}
}

func serve(cfg *config.Config, log *logrus.Logger) {
	srv := config.ServerFromEnv()
	if cfg.Addr != "" {
		srv.Addr = cfg.Addr
	}
	srv.Workers = cfg.Workers

	router := handler.NewRouter(srv, log)
	log.Infof("[*] HTTP мост запущен: http://%s", srv.Addr)
	if err := router.Run(srv.Addr); err != nil {
		log.Fatalf("[-] Ошибка запуска сервера: %v", err)
	}
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.Warnf("[!] Неизвестный уровень логов %q, используем info", level)
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

func run(cfg *config.Config, r *rig.Rig) (any, error) {
	log := r.Logger()
	tl := &r.Project().Timeline

	switch cfg.Mode {
	case "eval":
		return handler.NewCameraFrame(r.Evaluate(cfg.Frame)), nil

	case "range":
		step := cfg.Step
		if step <= 0 {
			step = tl.CameraConstraints.GetSampleStep()
		}
		states, err := r.Sample(cfg.Start, cfg.End, step)
		if err != nil {
			return nil, err
		}
		log.Infof("[*] Кадры %d-%d, шаг %d: %d состояний", cfg.Start, cfg.End, step, len(states))
		return handler.NewCameraFrames(states), nil

	case "bake":
		bs := cfg.Bake()
		baked, err := bake.New(r).Bake(bake.Options{
			Start:             cfg.Start,
			End:               cfg.End,
			ReduceKeys:        bs.ReduceKeys,
			MaxError:          bs.MaxError,
			MaxKeysPerChannel: bs.MaxKeys,
			Workers:           bs.Workers,
		})
		if err != nil {
			return nil, err
		}
		log.Infof("[*] Запечено кадров %d-%d (сокращение ключей: %v)", cfg.Start, cfg.End, bs.ReduceKeys)
		return baked, nil

	case "segments":
		segs := shots.Segmentize(tl, cfg.Start, cfg.End)
		out := make([]segmentDoc, len(segs))
		for i, s := range segs {
			out[i] = segmentDoc{Start: s.Start, End: s.End, Constraints: s.Constraints.Filled()}
		}
		return out, nil

	case "shots":
		ranges := shots.SplitOnCuts(tl.Cuts, cfg.Start, cfg.End)
		out := make([]shotDoc, len(ranges))
		for i, rg := range ranges {
			out[i] = shotDoc{Start: rg.Start, End: rg.End}
			if s := shots.FindShot(tl, rg.Start); s != nil {
				out[i].RenderOverrides = s.RenderOverrides
			}
		}
		log.Infof("[*] Шотов: %d", len(out))
		return out, nil

	case "validate":
		warns := r.Project().Validate(config.DefaultValidationPolicy())
		return map[string]any{"ok": true, "warnings": warns}, nil

	default:
		return nil, fmt.Errorf("неизвестный режим %q", cfg.Mode)
	}
}

type segmentDoc struct {
	Start       int                        `yaml:"start" json:"start"`
	End         int                        `yaml:"end" json:"end"`
	Constraints *project.CameraConstraints `yaml:"constraints,omitempty" json:"constraints,omitempty"`
}

type shotDoc struct {
	Start           int            `yaml:"start" json:"start"`
	End             int            `yaml:"end" json:"end"`
	RenderOverrides map[string]any `yaml:"render_overrides,omitempty" json:"render_overrides,omitempty"`
}

func writeOutput(cfg *config.Config, doc any) error {
	var w io.Writer = os.Stdout
	if cfg.OutputPath != "" {
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml", "yml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("неизвестный формат %q", cfg.Format)
	}
}
