package chapter

import (
	"log"

	"github.com/lixenwraith/unveil/navigation"
	"github.com/lixenwraith/unveil/policy"
)

// Stage keeps exactly one chapter mounted, following the navigation state
// The hub shows the question until it is accepted, then the intro sequence
type Stage struct {
	catalog *Catalog
	env     Env

	view      navigation.View
	current   Chapter
	question  *Question
	intro     *Intro
	introSeen bool
}

// NewStage creates a stage with nothing mounted
func NewStage(c *Catalog, env Env) *Stage {
	s := &Stage{
		catalog:  c,
		env:      env,
		view:     navigation.ViewGate,
		question: NewQuestion(QuestionLine1, QuestionLine2),
		intro:    NewIntro(),
	}
	s.question.OnYes(func() {
		s.question.Stop()
		if s.view == navigation.ViewHub {
			s.mountIntro()
		}
	})
	return s
}

// OnNavigate is a navigation.Listener
func (s *Stage) OnNavigate(_, next navigation.State) {
	s.Show(next)
}

// Show mounts what the state names and unmounts everything else
func (s *Stage) Show(st navigation.State) {
	s.view = st.View()

	if s.current != nil && s.current.ID() != st.Active {
		s.current.Unmount()
		s.current = nil
	}

	if s.view != navigation.ViewHub {
		s.question.Stop()
	}

	switch s.view {
	case navigation.ViewChapter:
		s.intro.Unmount()
		if s.current == nil {
			s.mountChapter(st.Active)
		}
	case navigation.ViewHub:
		if s.question.Accepted() {
			s.mountIntro()
		} else {
			s.question.Start(s.env.Scheduler, s.env.Rand)
		}
	default:
		s.intro.Unmount()
	}
}

func (s *Stage) mountChapter(id policy.ChapterID) {
	c, ok := s.catalog.New(id)
	if !ok {
		log.Printf("[chapter] no chapter %s in catalog", id)
		return
	}
	if err := c.Mount(s.env); err != nil {
		log.Printf("[chapter] mount %s: %v", id, err)
		return
	}
	s.current = c
}

func (s *Stage) mountIntro() {
	if s.intro.Mounted() {
		return
	}
	if err := s.intro.Mount(s.env); err != nil {
		log.Printf("[chapter] intro: %v", err)
		return
	}
	// Returning to the hub shows the finished intro at once
	if s.introSeen {
		s.intro.Action(ActionSkip)
	}
	s.introSeen = true
}

// Current returns the mounted chapter, nil outside chapter view
func (s *Stage) Current() Chapter { return s.current }

// Question returns the hub question
func (s *Stage) Question() *Question { return s.question }

// Intro returns the hub intro
func (s *Stage) Intro() *Intro { return s.intro }

// Catalog returns the chapter catalog
func (s *Stage) Catalog() *Catalog { return s.catalog }

// Pointer forwards to the mounted chapter
func (s *Stage) Pointer(x, y float64) {
	if s.current != nil {
		s.current.Pointer(x, y)
	}
}

// Action delivers an action to the mounted chapter, or skip to the intro on the hub
func (s *Stage) Action(name string) bool {
	if s.current != nil {
		return s.current.Action(name)
	}
	if s.view == navigation.ViewHub && s.intro.Mounted() {
		return s.intro.Action(name)
	}
	return false
}

// Close unmounts everything
func (s *Stage) Close() {
	if s.current != nil {
		s.current.Unmount()
		s.current = nil
	}
	s.intro.Unmount()
	s.question.Stop()
}
