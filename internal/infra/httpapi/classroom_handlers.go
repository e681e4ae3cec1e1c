package httpapi

import (
	"net/http"
	"time"

	"schoolbridge/internal/app"
	"schoolbridge/internal/domain/student"

	"github.com/labstack/echo/v4"
)

type classroomAPI struct {
	service *app.ClassroomService
}

func registerClassroomAPI(g *echo.Group, teacherOnly echo.MiddlewareFunc, svc *app.ClassroomService) {
	api := classroomAPI{service: svc}

	g.POST("/classrooms", api.create, teacherOnly)
	g.GET("/classrooms/:id", api.retrieve, teacherOnly)

	cg := g.Group("/classroom/:id", teacherOnly)
	cg.POST("/students", api.addStudent)
	cg.POST("/student/:studentId/guardians", api.linkGuardian)
	cg.POST("/assignment", api.createAssignment)
	cg.POST("/announcement", api.createAnnouncement)
	cg.POST("/student/:studentId/remark", api.addRemark)
	cg.POST("/attendance", api.recordAttendance)
	cg.POST("/student/:studentId/marks", api.addMarks)
}

type createClassroomRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Subject string `json:"subject" validate:"max=120"`
}

type addStudentRequest struct {
	Name       string `json:"name" validate:"required,max=120"`
	RollNumber string `json:"rollNumber" validate:"max=32"`
}

type linkGuardianRequest struct {
	ParentID string `json:"parentId" validate:"required"`
}

type assignmentRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
}

type announcementRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=5000"`
}

type remarkRequest struct {
	Type     string `json:"type" validate:"omitempty,oneof=text voice"`
	Content  string `json:"content" validate:"max=5000"`
	VoiceURL string `json:"voiceUrl" validate:"omitempty,url"`
}

type attendanceEntryRequest struct {
	StudentID string    `json:"student" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Status    string    `json:"status" validate:"required,oneof=present absent late"`
}

type attendanceRequest struct {
	Attendance []attendanceEntryRequest `json:"attendance" validate:"required,min=1,dive"`
}

type marksRequest struct {
	Subject  string  `json:"subject" validate:"max=120"`
	Score    float64 `json:"score" validate:"gte=0,ltefield=MaxScore"`
	MaxScore float64 `json:"maxScore" validate:"required,gt=0"`
	Term     string  `json:"term" validate:"max=60"`
}

func (api *classroomAPI) create(c echo.Context) error {
	req := new(createClassroomRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	cls, err := api.service.CreateClassroom(c.Request().Context(), callerID(c), req.Name, req.Subject)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "classroom": cls})
}

func (api *classroomAPI) retrieve(c echo.Context) error {
	cls, err := api.service.GetClassroom(c.Request().Context(), callerID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "classroom": cls})
}

func (api *classroomAPI) addStudent(c echo.Context) error {
	req := new(addStudentRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	st, err := api.service.AddStudent(c.Request().Context(), callerID(c), c.Param("id"), req.Name, req.RollNumber)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "student": st})
}

func (api *classroomAPI) linkGuardian(c echo.Context) error {
	req := new(linkGuardianRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	st, err := api.service.LinkGuardian(c.Request().Context(), callerID(c), c.Param("id"), c.Param("studentId"), req.ParentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "student": st})
}

func (api *classroomAPI) createAssignment(c echo.Context) error {
	req := new(assignmentRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	a, err := api.service.CreateAssignment(c.Request().Context(), callerID(c), c.Param("id"), app.AssignmentInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "assignment": a})
}

func (api *classroomAPI) createAnnouncement(c echo.Context) error {
	req := new(announcementRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	a, err := api.service.CreateAnnouncement(c.Request().Context(), callerID(c), c.Param("id"), req.Title, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "announcement": a})
}

func (api *classroomAPI) addRemark(c echo.Context) error {
	req := new(remarkRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	r, err := api.service.AddRemark(c.Request().Context(), callerID(c), c.Param("id"), c.Param("studentId"), app.RemarkInput{
		Kind:     student.RemarkKind(req.Type),
		Content:  req.Content,
		VoiceURL: req.VoiceURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "remark": r})
}

func (api *classroomAPI) recordAttendance(c echo.Context) error {
	req := new(attendanceRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	entries := make([]app.AttendanceEntry, len(req.Attendance))
	for i, e := range req.Attendance {
		entries[i] = app.AttendanceEntry{
			StudentID: e.StudentID,
			Date:      e.Date,
			Status:    student.AttendanceStatus(e.Status),
		}
	}
	records, err := api.service.RecordAttendance(c.Request().Context(), callerID(c), c.Param("id"), entries)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "count": len(records), "attendance": records})
}

func (api *classroomAPI) addMarks(c echo.Context) error {
	req := new(marksRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	m, err := api.service.AddMark(c.Request().Context(), callerID(c), c.Param("id"), c.Param("studentId"), app.MarkInput{
		Subject:  req.Subject,
		Score:    req.Score,
		MaxScore: req.MaxScore,
		Term:     req.Term,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "marks": m})
}
